// Package orchestrators joins the filesystem cache, dataset registry, replay
// controller and series registry behind one lock and one per-frame Update.
package orchestrators

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/reusee/hanalyzer/datasets"
	"github.com/reusee/hanalyzer/filesystems"
	"github.com/reusee/hanalyzer/logs"
	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/remotes"
	"github.com/reusee/hanalyzer/replays"
	"github.com/reusee/hanalyzer/series"
	"github.com/reusee/hanalyzer/tables"
	"github.com/reusee/hanalyzer/tasks"
)

// Orchestrator is safe for concurrent use. The lock is held for one Update or
// one intent or read, never across I/O.
type Orchestrator struct {
	ctx       context.Context
	cancel    context.CancelFunc
	client    remotes.Client
	logger    logs.Logger
	stateFile string

	mu       sync.Mutex
	fs       *filesystems.Cache
	datasets *datasets.Registry
	replay   *replays.Controller
	series   *series.Registry

	saveSlot tasks.Slot[struct{}]
	saveErr  error
	savedAt  time.Time
	ticks    uint64
}

// Update advances every component once: filesystem, replay, series, then
// datasets. It never blocks.
func (o *Orchestrator) Update() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ticks++
	o.fs.Tick()
	o.replay.Update()
	o.series.Tick()
	o.datasets.Tick()
	o.tickSave()
}

func (o *Orchestrator) tickSave() {
	poll := o.saveSlot.Poll()
	if !poll.Ready {
		return
	}
	o.saveErr = poll.Err
	if poll.Err != nil {
		o.logger.WarnContext(o.ctx, "save manifest", "error", poll.Err)
		return
	}
	o.savedAt = time.Now()
	o.logger.InfoContext(o.ctx, "manifest saved")
}

// Close cancels all outstanding operations.
func (o *Orchestrator) Close() {
	o.cancel()
}

// datasets

func (o *Orchestrator) EnqueueDataset(descriptor models.LoadDescriptor) datasets.ID {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.datasets.Enqueue(descriptor)
}

func (o *Orchestrator) Confirm(id datasets.ID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.datasets.Confirm(id)
}

func (o *Orchestrator) SetDescriptor(id datasets.ID, descriptor models.LoadDescriptor) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.datasets.SetDescriptor(id, descriptor)
}

func (o *Orchestrator) Cancel(id datasets.ID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.datasets.Cancel(id)
}

func (o *Orchestrator) Retry(id datasets.ID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.datasets.Retry(id)
}

func (o *Orchestrator) DatasetState(id datasets.ID) (datasets.LoadState, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.datasets.State(id)
}

// DatasetPayload returns the loaded table. Payloads are replaced, never
// modified, so it may be read without the lock.
func (o *Orchestrator) DatasetPayload(id datasets.ID) (*tables.Table, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.datasets.Payload(id)
}

func (o *Orchestrator) Datasets() []datasets.Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.datasets.Records()
}

// SaveManifest sends the current descriptors to the backend. It reports
// false when a save is already in flight.
func (o *Orchestrator) SaveManifest() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.saveSlot.Empty() {
		return false
	}
	o.saveSlot.Set(o.client.SaveManifest(o.ctx, o.datasets.Descriptors()))
	return true
}

// filesystem

func (o *Orchestrator) CurrentListing() (models.Listing, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fs.Listing()
}

func (o *Orchestrator) RequestListing(path string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fs.RequestListing(path)
}

func (o *Orchestrator) Enter(dir string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fs.Enter(dir)
}

func (o *Orchestrator) Up() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fs.Up()
}

func (o *Orchestrator) Refresh() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fs.Refresh()
}

// replay

func (o *Orchestrator) SetSession(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.replay.SelectSession(name)
}

func (o *Orchestrator) Play() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.replay.Play()
}

func (o *Orchestrator) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.replay.Pause()
}

// TogglePlay plays a paused replay and pauses a playing one.
func (o *Orchestrator) TogglePlay() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.replay.Playing() {
		o.replay.Pause()
	} else {
		o.replay.Play()
	}
}

func (o *Orchestrator) Step() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.replay.Step()
}

func (o *Orchestrator) Seek(i int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.replay.Seek(i)
}

func (o *Orchestrator) ReplayHistory() []models.Frame {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.replay.History())
}

// series

func (o *Orchestrator) SeriesIDs() []models.SeriesID {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.series.IDs()
}

// SeriesBuffer returns a copy of the series rows.
func (o *Orchestrator) SeriesBuffer(id models.SeriesID) (tables.Table, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	buffer, ok := o.series.Buffer(id)
	if !ok {
		return tables.Table{}, false
	}
	return buffer.Clone(), true
}
