// Package datasets tracks loadable tables and admits their loads one at a
// time, oldest first.
package datasets

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/reusee/hanalyzer/logs"
	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/remotes"
	"github.com/reusee/hanalyzer/tables"
	"github.com/reusee/hanalyzer/tasks"
)

type Record struct {
	ID         ID
	Descriptor models.LoadDescriptor
	State      LoadState
	// Payload is replaced wholesale on each successful load. Readers must not
	// modify it.
	Payload  *tables.Table
	Err      error
	Enqueued time.Time
	Started  time.Time
	Finished time.Time
}

type Registry struct {
	ctx     context.Context
	client  remotes.Client
	logger  logs.Logger
	newSpan logs.NewSpan

	nextID  ID
	records []*Record // ascending ID

	// the single load slot, owned by loadingID
	slot      tasks.Slot[tables.Table]
	loadingID ID
	loadCtx   context.Context

	manifestSlot tasks.Slot[[]models.LoadDescriptor]
	manifestDone bool
}

func New(ctx context.Context, client remotes.Client, logger logs.Logger, newSpan logs.NewSpan) *Registry {
	return &Registry{
		ctx:     ctx,
		client:  client,
		logger:  logger,
		newSpan: newSpan,
	}
}

// Enqueue adds a record that waits for Confirm.
func (r *Registry) Enqueue(descriptor models.LoadDescriptor) ID {
	return r.add(descriptor, AwaitingConfirmation)
}

// EnqueueConfirmed adds a record that is admitted without confirmation.
func (r *Registry) EnqueueConfirmed(descriptor models.LoadDescriptor) ID {
	return r.add(descriptor, Queued)
}

func (r *Registry) add(descriptor models.LoadDescriptor, state LoadState) ID {
	r.nextID++
	r.records = append(r.records, &Record{
		ID:         r.nextID,
		Descriptor: descriptor,
		State:      state,
		Enqueued:   time.Now(),
	})
	return r.nextID
}

func (r *Registry) get(id ID) *Record {
	i, ok := slices.BinarySearchFunc(r.records, id, func(rec *Record, id ID) int {
		return cmp.Compare(rec.ID, id)
	})
	if !ok {
		return nil
	}
	return r.records[i]
}

// Confirm admits a record awaiting confirmation. Other states are left as is.
func (r *Registry) Confirm(id ID) {
	if rec := r.get(id); rec != nil && rec.State == AwaitingConfirmation {
		rec.State = Queued
	}
}

// SetDescriptor changes the format of a record awaiting confirmation.
func (r *Registry) SetDescriptor(id ID, descriptor models.LoadDescriptor) error {
	rec := r.get(id)
	if rec == nil {
		return fmt.Errorf("no dataset %d", id)
	}
	if rec.State != AwaitingConfirmation {
		return fmt.Errorf("dataset %d is %v", id, rec.State)
	}
	rec.Descriptor = descriptor
	return nil
}

// Cancel marks a record canceled. A load in flight is asked to stop and keeps
// the slot until it resolves; its result is then dropped.
func (r *Registry) Cancel(id ID) {
	rec := r.get(id)
	if rec == nil || rec.State == Canceled {
		return
	}
	if rec.State == Loading && r.loadingID == id {
		r.slot.Cancel()
	}
	rec.State = Canceled
	rec.Payload = nil
}

// Retry puts a failed record back in the queue.
func (r *Registry) Retry(id ID) {
	if rec := r.get(id); rec != nil && rec.State == Failed {
		rec.State = Queued
		rec.Err = nil
	}
}

// Tick admits the oldest queued record when the slot is free, applies a
// finished load, and removes canceled records. It never blocks.
func (r *Registry) Tick() {
	r.tickManifest()

	if r.slot.Empty() {
		for _, rec := range r.records {
			if rec.State != Queued {
				continue
			}
			r.start(rec)
			break
		}
	}

	if poll := r.slot.Poll(); poll.Ready {
		r.finish(poll)
	}

	r.records = slices.DeleteFunc(r.records, func(rec *Record) bool {
		return rec.State == Canceled
	})
}

func (r *Registry) start(rec *Record) {
	ctx, _ := r.newSpan(r.ctx, "", "load dataset")
	rec.State = Loading
	rec.Started = time.Now()
	rec.Finished = time.Time{}
	r.loadingID = rec.ID
	r.loadCtx = ctx
	r.logger.InfoContext(ctx, "load dataset",
		"id", rec.ID,
		"path", rec.Descriptor.Path,
		"type", rec.Descriptor.Type,
	)
	r.slot.Set(r.client.LoadDataset(ctx, rec.Descriptor))
}

func (r *Registry) finish(poll tasks.Poll[tables.Table]) {
	ctx := r.loadCtx
	id := r.loadingID
	r.loadingID = 0
	r.loadCtx = nil

	rec := r.get(id)
	if rec == nil || rec.State != Loading {
		r.logger.DebugContext(ctx, "drop stale load result",
			"id", id,
			"error", poll.Err,
		)
		return
	}

	rec.Finished = time.Now()
	if poll.Err != nil {
		rec.State = Failed
		rec.Payload = nil
		rec.Err = logs.WrapSpan(ctx, poll.Err)
		r.logger.WarnContext(ctx, "dataset load failed",
			"id", id,
			"path", rec.Descriptor.Path,
			"kind", remotes.Kind(poll.Err),
			"error", poll.Err,
		)
		return
	}

	table := poll.Value
	rec.State = Loaded
	rec.Payload = &table
	rec.Err = nil
	r.logger.InfoContext(ctx, "dataset loaded",
		"id", id,
		"rows", table.NumRows(),
		"columns", len(table.Columns),
		"duration", rec.Finished.Sub(rec.Started),
	)
}

// tickManifest fetches the initial manifest once and enqueues its
// descriptors, skipping those already registered.
func (r *Registry) tickManifest() {
	if r.manifestDone {
		return
	}
	if r.manifestSlot.Empty() {
		r.manifestSlot.Set(r.client.InitialManifest(r.ctx))
	}
	poll := r.manifestSlot.Poll()
	if !poll.Ready {
		return
	}
	if poll.Err != nil {
		r.logger.DebugContext(r.ctx, "initial manifest", "error", poll.Err)
		if !remotes.Retryable(poll.Err) {
			r.manifestDone = true
		}
		return
	}
	r.manifestDone = true
	for _, descriptor := range poll.Value {
		if r.has(descriptor) {
			continue
		}
		r.EnqueueConfirmed(descriptor)
	}
}

func (r *Registry) has(descriptor models.LoadDescriptor) bool {
	for _, rec := range r.records {
		if rec.State != Canceled && rec.Descriptor == descriptor {
			return true
		}
	}
	return false
}

func (r *Registry) State(id ID) (LoadState, bool) {
	rec := r.get(id)
	if rec == nil {
		return 0, false
	}
	return rec.State, true
}

// Payload returns the loaded table of a record.
func (r *Registry) Payload(id ID) (*tables.Table, bool) {
	rec := r.get(id)
	if rec == nil || rec.Payload == nil {
		return nil, false
	}
	return rec.Payload, true
}

// Records returns copies of all records in ID order.
func (r *Registry) Records() []Record {
	ret := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		ret = append(ret, *rec)
	}
	return ret
}

// Descriptors returns the descriptors of all records not canceled, in ID
// order.
func (r *Registry) Descriptors() []models.LoadDescriptor {
	var ret []models.LoadDescriptor
	for _, rec := range r.records {
		if rec.State == Canceled {
			continue
		}
		ret = append(ret, rec.Descriptor)
	}
	return ret
}

// Loading returns the record owning the load slot.
func (r *Registry) Loading() (ID, bool) {
	if rec := r.get(r.loadingID); rec != nil && rec.State == Loading {
		return rec.ID, true
	}
	return 0, false
}
