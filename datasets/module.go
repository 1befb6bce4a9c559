package datasets

import (
	"context"

	"github.com/reusee/dscope"
	"github.com/reusee/hanalyzer/logs"
	"github.com/reusee/hanalyzer/remotes"
)

type Module struct {
	dscope.Module
	Remotes remotes.Module
}

type NewRegistry func(ctx context.Context) *Registry

func (Module) NewRegistry(
	client remotes.Client,
	logger logs.Logger,
	newSpan logs.NewSpan,
) NewRegistry {
	return func(ctx context.Context) *Registry {
		return New(ctx, client, logger, newSpan)
	}
}
