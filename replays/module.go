package replays

import (
	"context"
	"time"

	"github.com/reusee/dscope"
	"github.com/reusee/hanalyzer/hconfigs"
	"github.com/reusee/hanalyzer/logs"
	"github.com/reusee/hanalyzer/remotes"
)

type Module struct {
	dscope.Module
	Remotes remotes.Module
}

type NewController func(ctx context.Context) *Controller

func (Module) NewController(
	client remotes.Client,
	logger logs.Logger,
	newSpan logs.NewSpan,
	interval hconfigs.ListInterval,
) NewController {
	return func(ctx context.Context) *Controller {
		return New(ctx, client, logger, newSpan, time.Duration(interval))
	}
}
