package orchestrators

import (
	"time"

	"github.com/reusee/hanalyzer/datasets"
	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/remotes"
)

// Snapshot is a plain copy of the committed state, for views and the debug
// console.
type Snapshot struct {
	Ticks      uint64
	Path       string
	Listing    models.Listing
	HasListing bool
	ListingErr string
	Pending    bool
	Datasets   []DatasetStatus
	Loading    datasets.ID
	Replay     ReplayStatus
	Series     []SeriesStatus
	Manifest   ManifestStatus
}

type DatasetStatus struct {
	ID       datasets.ID
	Name     string
	Path     string
	Type     models.SourceType
	State    datasets.LoadState
	Rows     int
	Columns  []string
	Error    string
	Duration time.Duration
}

type ReplayStatus struct {
	Session     string
	Frames      int
	Total       uint64
	TotalKnown  bool
	Cursor      int
	Current     *models.Frame
	Playing     bool
	Epoch       int
	MeanLatency time.Duration
	Error       string
}

type SeriesStatus struct {
	ID      models.SeriesID
	Kind    models.ElementKind
	Rows    int
	Dropped int
}

type ManifestStatus struct {
	Saving  bool
	SavedAt time.Time
	Error   string
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return remotes.Kind(err) + ": " + err.Error()
}

func (o *Orchestrator) Snapshot() (ret Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ret.Ticks = o.ticks
	ret.Path = o.fs.Path()
	ret.Listing, ret.HasListing = o.fs.Listing()
	ret.ListingErr = errString(o.fs.Err())
	ret.Pending = o.fs.Pending()

	for _, rec := range o.datasets.Records() {
		status := DatasetStatus{
			ID:    rec.ID,
			Name:  rec.Descriptor.Name(),
			Path:  rec.Descriptor.Path,
			Type:  rec.Descriptor.Type,
			State: rec.State,
			Error: errString(rec.Err),
		}
		if rec.Payload != nil {
			status.Rows = rec.Payload.NumRows()
			status.Columns = rec.Payload.Names()
		}
		if !rec.Finished.IsZero() {
			status.Duration = rec.Finished.Sub(rec.Started)
		}
		ret.Datasets = append(ret.Datasets, status)
	}
	ret.Loading, _ = o.datasets.Loading()

	ret.Replay = ReplayStatus{
		Session:     o.replay.Session(),
		Frames:      len(o.replay.History()),
		Cursor:      o.replay.Cursor(),
		Playing:     o.replay.Playing(),
		Epoch:       o.replay.Epoch(),
		MeanLatency: o.replay.MeanLatency(),
		Error:       errString(o.replay.Err()),
	}
	ret.Replay.Total, ret.Replay.TotalKnown = o.replay.Total()
	if frame, ok := o.replay.Current(); ok {
		ret.Replay.Current = &frame
	}

	for _, id := range o.series.IDs() {
		buffer, _ := o.series.Buffer(id)
		kind, _ := o.series.Kind(id)
		ret.Series = append(ret.Series, SeriesStatus{
			ID:      id,
			Kind:    kind,
			Rows:    buffer.NumRows(),
			Dropped: o.series.Dropped(id),
		})
	}

	ret.Manifest = ManifestStatus{
		Saving:  !o.saveSlot.Empty(),
		SavedAt: o.savedAt,
		Error:   errString(o.saveErr),
	}
	return
}
