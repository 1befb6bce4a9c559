// Package series discovers realtime series and merges their polled deltas
// into per-series buffers.
package series

import (
	"context"
	"slices"
	"time"

	"github.com/reusee/hanalyzer/logs"
	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/remotes"
	"github.com/reusee/hanalyzer/tables"
	"github.com/reusee/hanalyzer/tasks"
)

// Buffer accumulates the rows of one series. Its schema is fixed by the
// element kind when the series is discovered.
type Buffer struct {
	ID    models.SeriesID
	Kind  models.ElementKind
	Table tables.Table
	// Dropped counts deltas rejected for a schema mismatch.
	Dropped int
	slot    tasks.Slot[models.SeriesDelta]
}

type Registry struct {
	ctx      context.Context
	client   remotes.Client
	logger   logs.Logger
	interval time.Duration
	now      func() time.Time

	listSlot tasks.Slot[[]models.SeriesMetadata]
	lastList time.Time

	buffers map[models.SeriesID]*Buffer
	ids     []models.SeriesID // sorted
}

func New(ctx context.Context, client remotes.Client, logger logs.Logger, interval time.Duration) *Registry {
	return &Registry{
		ctx:      ctx,
		client:   client,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		buffers:  make(map[models.SeriesID]*Buffer),
	}
}

// Tick discovers new series and polls every known series, each with at most
// one request in flight. It never blocks.
func (r *Registry) Tick() {
	r.tickList()
	for _, id := range r.ids {
		buffer := r.buffers[id]
		if poll := buffer.slot.Poll(); poll.Ready {
			r.merge(buffer, poll)
		}
		if buffer.slot.Empty() {
			buffer.slot.Set(r.client.PollSeries(r.ctx, id))
		}
	}
}

func (r *Registry) tickList() {
	if now := r.now(); r.listSlot.Empty() && now.Sub(r.lastList) >= r.interval {
		r.lastList = now
		r.listSlot.Set(r.client.ListSeries(r.ctx))
	}
	poll := r.listSlot.Poll()
	if !poll.Ready {
		return
	}
	if poll.Err != nil {
		r.logger.DebugContext(r.ctx, "list series", "error", poll.Err)
		return
	}
	for _, meta := range poll.Value {
		if _, ok := r.buffers[meta.ID]; ok {
			continue
		}
		specs, err := meta.Kind.Schema()
		if err != nil {
			r.logger.WarnContext(r.ctx, "skip series",
				"series", meta.ID,
				"error", err,
			)
			continue
		}
		r.buffers[meta.ID] = &Buffer{
			ID:    meta.ID,
			Kind:  meta.Kind,
			Table: tables.New(specs...),
		}
		i, _ := slices.BinarySearch(r.ids, meta.ID)
		r.ids = slices.Insert(r.ids, i, meta.ID)
		r.logger.InfoContext(r.ctx, "new series",
			"series", meta.ID,
			"kind", meta.Kind,
		)
	}
}

// merge applies one poll result. Reset clears the buffer before the carried
// rows are appended.
func (r *Registry) merge(buffer *Buffer, poll tasks.Poll[models.SeriesDelta]) {
	if poll.Err != nil {
		r.logger.DebugContext(r.ctx, "poll series",
			"series", buffer.ID,
			"error", poll.Err,
		)
		return
	}
	delta := poll.Value
	switch delta.Command {
	case models.Reset:
		buffer.Table.Clear()
	case models.Append:
	default:
		r.logger.WarnContext(r.ctx, "unknown series command",
			"series", buffer.ID,
			"command", delta.Command,
		)
		return
	}
	if len(delta.Rows.Columns) == 0 {
		return
	}
	if err := delta.Rows.Validate(); err != nil {
		buffer.Dropped++
		r.logger.WarnContext(r.ctx, "drop series rows", "series", buffer.ID, "error", err)
		return
	}
	if err := buffer.Table.AppendRows(delta.Rows); err != nil {
		buffer.Dropped++
		r.logger.WarnContext(r.ctx, "drop series rows", "series", buffer.ID, "error", err)
	}
}

// IDs returns the known series in sorted order.
func (r *Registry) IDs() []models.SeriesID {
	return slices.Clone(r.ids)
}

// Buffer returns the accumulated rows of a series. Readers must not modify
// it.
func (r *Registry) Buffer(id models.SeriesID) (*tables.Table, bool) {
	buffer, ok := r.buffers[id]
	if !ok {
		return nil, false
	}
	return &buffer.Table, true
}

func (r *Registry) Kind(id models.SeriesID) (models.ElementKind, bool) {
	buffer, ok := r.buffers[id]
	if !ok {
		return 0, false
	}
	return buffer.Kind, true
}

func (r *Registry) Dropped(id models.SeriesID) int {
	if buffer, ok := r.buffers[id]; ok {
		return buffer.Dropped
	}
	return 0
}
