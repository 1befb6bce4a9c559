package remotes

import (
	"context"

	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/tables"
	"github.com/reusee/hanalyzer/tasks"
)

// Client issues backend operations. Every method returns at once with a handle
// that resolves when the operation completes; none of them block.
type Client interface {
	DefaultPath(ctx context.Context) *tasks.Handle[string]
	ListDirectory(ctx context.Context, path string) *tasks.Handle[models.Listing]

	InitialManifest(ctx context.Context) *tasks.Handle[[]models.LoadDescriptor]
	SaveManifest(ctx context.Context, descriptors []models.LoadDescriptor) *tasks.Handle[struct{}]
	LoadDataset(ctx context.Context, descriptor models.LoadDescriptor) *tasks.Handle[tables.Table]

	ListSeries(ctx context.Context) *tasks.Handle[[]models.SeriesMetadata]
	PollSeries(ctx context.Context, id models.SeriesID) *tasks.Handle[models.SeriesDelta]

	ReplayInfo(ctx context.Context, session string) *tasks.Handle[models.ReplayInfo]
	ReplayFrame(ctx context.Context, session string, index uint64) *tasks.Handle[models.Frame]
}
