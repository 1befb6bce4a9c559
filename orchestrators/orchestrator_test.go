package orchestrators

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/reusee/dscope"
	"github.com/reusee/hanalyzer/backends"
	"github.com/reusee/hanalyzer/datasets"
	"github.com/reusee/hanalyzer/hconfigs"
	"github.com/reusee/hanalyzer/logs"
	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/modes"
	"github.com/reusee/hanalyzer/remotes"
	"github.com/reusee/hanalyzer/remotes/remotestest"
)

func newTestScope(t *testing.T, client func(logs.Logger) remotes.Client) dscope.Scope {
	stateFile := filepath.Join(t.TempDir(), "state.yaml")
	return dscope.New(new(Module), new(backends.Module), modes.ForTest(t)).Fork(
		client,
		func() hconfigs.StateFile {
			return hconfigs.StateFile(stateFile)
		},
		func() hconfigs.ListInterval {
			return hconfigs.ListInterval(time.Millisecond)
		},
	)
}

func newFakeOrchestrator(t *testing.T) (*Orchestrator, *remotestest.Client) {
	fake := new(remotestest.Client)
	var o *Orchestrator
	newTestScope(t, func(logs.Logger) remotes.Client {
		return fake
	}).Call(func(
		newOrchestrator NewOrchestrator,
	) {
		o = newOrchestrator(context.Background())
	})
	t.Cleanup(o.Close)
	return o, fake
}

type liveBackend struct {
	*Orchestrator
	backend *backends.Backend
}

func newLiveOrchestrator(t *testing.T, files map[string]string) liveBackend {
	root := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	var ret liveBackend
	var server *httptest.Server
	scope := newTestScope(t, func(logger logs.Logger) remotes.Client {
		return remotes.NewHTTPClient(server.URL, server.Client(), hconfigs.DefaultTimeouts, 4, logger)
	}).Fork(
		func() backends.Root {
			return backends.Root(root)
		},
	)
	scope.Call(func(
		backend *backends.Backend,
	) {
		ret.backend = backend
		server = httptest.NewServer(backend.Handler())
		t.Cleanup(server.Close)
	})
	// the client is built on first use, after the server is up
	scope.Call(func(
		newOrchestrator NewOrchestrator,
	) {
		ret.Orchestrator = newOrchestrator(context.Background())
	})
	t.Cleanup(ret.Close)
	return ret
}

// updateUntil drives Update like a render loop until cond holds.
func updateUntil(t *testing.T, o *Orchestrator, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		o.Update()
		snapshot := o.Snapshot()
		if cond(snapshot) {
			return snapshot
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached")
	return Snapshot{}
}

func TestLoadStartOrderIgnoresOtherTraffic(t *testing.T) {
	o, fake := newFakeOrchestrator(t)
	var ids []datasets.ID
	for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
		id := o.EnqueueDataset(models.NewLoadDescriptor(name, models.CommaSep))
		o.Confirm(id)
		ids = append(ids, id)
	}

	o.Update()
	fake.DefaultPaths[0].Resolve("/data")
	fake.SeriesLists[0].Resolve([]models.SeriesMetadata{
		{ID: "gps", Kind: models.Point},
	})
	o.SetSession("drive")

	var order []string
	for len(order) < 3 {
		o.Update()
		for _, call := range fake.Lists {
			call.Resolve(models.Listing{Path: call.Req})
		}
		for _, call := range fake.Polls {
			call.Resolve(models.SeriesDelta{})
		}
		if call := remotestest.Last(fake.Loads); call != nil && len(fake.Loads) > len(order) {
			order = append(order, call.Req.Name())
			call.Resolve(oneRow())
		}
	}
	if order[0] != "a.csv" || order[1] != "b.csv" || order[2] != "c.csv" {
		t.Fatalf("got %v", order)
	}
	o.Update()
	for _, id := range ids {
		if state, _ := o.DatasetState(id); state != datasets.Loaded {
			t.Fatalf("got %v", state)
		}
	}
	if len(fake.Infos) != 1 || fake.Infos[0].Req != "drive" {
		t.Fatal("session info should be requested")
	}
}

func TestEndToEnd(t *testing.T) {
	o := newLiveOrchestrator(t, map[string]string{
		"run.csv": "t,x,y\n0,0,0\n1,1,1\n",
	})
	o.backend.AddScriptedFeed("gps", models.Point)
	o.backend.AddSession(&backends.Session{
		Name:   "drive",
		Loop:   true,
		Frames: make([]models.Frame, 3),
	})
	o.backend.SetManifest([]models.LoadDescriptor{
		models.NewLoadDescriptor("run.csv", models.CommaSep),
	})

	snapshot := updateUntil(t, o.Orchestrator, func(s Snapshot) bool {
		return s.HasListing
	})
	if len(snapshot.Listing.Files) != 1 || snapshot.Listing.Files[0] != "run.csv" {
		t.Fatalf("got %+v", snapshot.Listing)
	}

	snapshot = updateUntil(t, o.Orchestrator, func(s Snapshot) bool {
		return len(s.Datasets) == 1 && s.Datasets[0].State == datasets.Loaded
	})
	if snapshot.Datasets[0].Rows != 2 {
		t.Fatalf("got %+v", snapshot.Datasets[0])
	}
	if table, ok := o.DatasetPayload(snapshot.Datasets[0].ID); !ok || table.NumRows() != 2 {
		t.Fatal()
	}

	id := o.EnqueueDataset(models.NewLoadDescriptor("missing.csv", models.CommaSep))
	o.Confirm(id)
	updateUntil(t, o.Orchestrator, func(s Snapshot) bool {
		state, _ := o.DatasetState(id)
		return state == datasets.Failed
	})

	o.SetSession("drive")
	snapshot = updateUntil(t, o.Orchestrator, func(s Snapshot) bool {
		return s.Replay.Epoch >= 1
	})
	if snapshot.Replay.Frames > 3 {
		t.Fatalf("got %+v", snapshot.Replay)
	}

	snapshot = updateUntil(t, o.Orchestrator, func(s Snapshot) bool {
		return len(s.Series) == 1
	})
	if snapshot.Series[0].ID != "gps" || snapshot.Series[0].Kind != models.Point {
		t.Fatalf("got %+v", snapshot.Series)
	}

	if !o.SaveManifest() {
		t.Fatal()
	}
	updateUntil(t, o.Orchestrator, func(s Snapshot) bool {
		return !s.Manifest.SavedAt.IsZero()
	})
	if got := o.backend.Manifest(); len(got) != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestStateRoundTrip(t *testing.T) {
	o, _ := newFakeOrchestrator(t)
	o.RequestListing("/data/runs")
	o.SetSession("drive")
	id := o.EnqueueDataset(models.NewLoadDescriptor("/data/a.csv", models.KITTI))
	o.Confirm(id)
	if err := o.SaveState(); err != nil {
		t.Fatal(err)
	}
	content, err := os.ReadFile(o.stateFile)
	if err != nil {
		t.Fatal(err)
	}

	restored, _ := newFakeOrchestrator(t)
	restored.stateFile = o.stateFile
	if err := restored.LoadState(); err != nil {
		t.Fatalf("%v: %s", err, content)
	}
	state := restored.State()
	if state.Path != "/data/runs" || state.Session != "drive" {
		t.Fatalf("got %+v", state)
	}
	if len(state.Datasets) != 1 || state.Datasets[0].Type != models.KITTI {
		t.Fatalf("got %+v", state.Datasets)
	}
	records := restored.Datasets()
	if records[0].State != datasets.Queued {
		t.Fatalf("got %v", records[0].State)
	}

	missing, _ := newFakeOrchestrator(t)
	missing.stateFile = filepath.Join(t.TempDir(), "nope.yaml")
	if err := missing.LoadState(); err != nil {
		t.Fatal(err)
	}
}

func TestSeriesBufferIsCopied(t *testing.T) {
	o, fake := newFakeOrchestrator(t)
	o.Update()
	fake.SeriesLists[0].Resolve([]models.SeriesMetadata{
		{ID: "gps", Kind: models.Point},
	})
	o.Update()
	fake.Polls[0].Resolve(models.SeriesDelta{
		Command: models.Append,
		Rows:    pointRows(2),
	})
	o.Update()

	buffer, ok := o.SeriesBuffer("gps")
	if !ok || buffer.NumRows() != 2 {
		t.Fatal()
	}
	buffer.Columns[0].Floats[0] = 99
	again, _ := o.SeriesBuffer("gps")
	if again.Columns[0].Floats[0] == 99 {
		t.Fatal("buffer shared with caller")
	}
	if ids := o.SeriesIDs(); len(ids) != 1 {
		t.Fatal()
	}
}
