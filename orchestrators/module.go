package orchestrators

import (
	"context"

	"github.com/reusee/dscope"
	"github.com/reusee/hanalyzer/datasets"
	"github.com/reusee/hanalyzer/filesystems"
	"github.com/reusee/hanalyzer/hconfigs"
	"github.com/reusee/hanalyzer/logs"
	"github.com/reusee/hanalyzer/remotes"
	"github.com/reusee/hanalyzer/replays"
	"github.com/reusee/hanalyzer/series"
)

type Module struct {
	dscope.Module
	Filesystems filesystems.Module
	Datasets    datasets.Module
	Replays     replays.Module
	Series      series.Module
}

type NewOrchestrator func(ctx context.Context) *Orchestrator

func (Module) NewOrchestrator(
	client remotes.Client,
	logger logs.Logger,
	newCache filesystems.NewCache,
	newDatasets datasets.NewRegistry,
	newController replays.NewController,
	newSeries series.NewRegistry,
	stateFile hconfigs.StateFile,
) NewOrchestrator {
	return func(ctx context.Context) *Orchestrator {
		ctx, cancel := context.WithCancel(ctx)
		return &Orchestrator{
			ctx:       ctx,
			cancel:    cancel,
			client:    client,
			logger:    logger,
			stateFile: string(stateFile),
			fs:        newCache(ctx),
			datasets:  newDatasets(ctx),
			replay:    newController(ctx),
			series:    newSeries(ctx),
		}
	}
}
