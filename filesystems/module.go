package filesystems

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

type NewCache func(ctx context.Context) *Cache

func (Module) NewCache(
	client remotes.Client,
	logger logs.Logger,
) NewCache {
	return func(ctx context.Context) *Cache {
		return New(ctx, client, logger)
	}
}
