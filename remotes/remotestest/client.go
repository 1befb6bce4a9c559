// Package remotestest provides a remotes.Client whose operations complete only
// when a test resolves them.
package remotestest

import (
	"context"

	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/remotes"
	"github.com/reusee/hanalyzer/tables"
	"github.com/reusee/hanalyzer/tasks"
)

// Call is one issued operation.
type Call[Req, Resp any] struct {
	Req     Req
	Handle  *tasks.Handle[Resp]
	resolve func(Resp, error)
}

func newCall[Req, Resp any](req Req) *Call[Req, Resp] {
	h, resolve := tasks.NewPromise[Resp]()
	return &Call[Req, Resp]{
		Req:     req,
		Handle:  h,
		resolve: resolve,
	}
}

func (c *Call[Req, Resp]) Resolve(value Resp) {
	c.resolve(value, nil)
}

func (c *Call[Req, Resp]) Fail(err error) {
	var zero Resp
	c.resolve(zero, err)
}

func (c *Call[Req, Resp]) Canceled() bool {
	return c.Handle.Canceled()
}

// Client records every call in issue order. It is not safe for concurrent use;
// tests drive it from one goroutine.
type Client struct {
	DefaultPaths []*Call[struct{}, string]
	Lists        []*Call[string, models.Listing]
	Manifests    []*Call[struct{}, []models.LoadDescriptor]
	Saves        []*Call[[]models.LoadDescriptor, struct{}]
	Loads        []*Call[models.LoadDescriptor, tables.Table]
	SeriesLists  []*Call[struct{}, []models.SeriesMetadata]
	Polls        []*Call[models.SeriesID, models.SeriesDelta]
	Infos        []*Call[string, models.ReplayInfo]
	Frames       []*Call[models.FrameRequest, models.Frame]
}

var _ remotes.Client = new(Client)

func (c *Client) DefaultPath(ctx context.Context) *tasks.Handle[string] {
	call := newCall[struct{}, string](struct{}{})
	c.DefaultPaths = append(c.DefaultPaths, call)
	return call.Handle
}

func (c *Client) ListDirectory(ctx context.Context, path string) *tasks.Handle[models.Listing] {
	call := newCall[string, models.Listing](path)
	c.Lists = append(c.Lists, call)
	return call.Handle
}

func (c *Client) InitialManifest(ctx context.Context) *tasks.Handle[[]models.LoadDescriptor] {
	call := newCall[struct{}, []models.LoadDescriptor](struct{}{})
	c.Manifests = append(c.Manifests, call)
	return call.Handle
}

func (c *Client) SaveManifest(ctx context.Context, descriptors []models.LoadDescriptor) *tasks.Handle[struct{}] {
	call := newCall[[]models.LoadDescriptor, struct{}](descriptors)
	c.Saves = append(c.Saves, call)
	return call.Handle
}

func (c *Client) LoadDataset(ctx context.Context, descriptor models.LoadDescriptor) *tasks.Handle[tables.Table] {
	call := newCall[models.LoadDescriptor, tables.Table](descriptor)
	c.Loads = append(c.Loads, call)
	return call.Handle
}

func (c *Client) ListSeries(ctx context.Context) *tasks.Handle[[]models.SeriesMetadata] {
	call := newCall[struct{}, []models.SeriesMetadata](struct{}{})
	c.SeriesLists = append(c.SeriesLists, call)
	return call.Handle
}

func (c *Client) PollSeries(ctx context.Context, id models.SeriesID) *tasks.Handle[models.SeriesDelta] {
	call := newCall[models.SeriesID, models.SeriesDelta](id)
	c.Polls = append(c.Polls, call)
	return call.Handle
}

func (c *Client) ReplayInfo(ctx context.Context, session string) *tasks.Handle[models.ReplayInfo] {
	call := newCall[string, models.ReplayInfo](session)
	c.Infos = append(c.Infos, call)
	return call.Handle
}

func (c *Client) ReplayFrame(ctx context.Context, session string, index uint64) *tasks.Handle[models.Frame] {
	call := newCall[models.FrameRequest, models.Frame](models.FrameRequest{
		Session: session,
		Index:   index,
	})
	c.Frames = append(c.Frames, call)
	return call.Handle
}

// Last returns the most recent call of calls.
func Last[Req, Resp any](calls []*Call[Req, Resp]) *Call[Req, Resp] {
	if len(calls) == 0 {
		return nil
	}
	return calls[len(calls)-1]
}
