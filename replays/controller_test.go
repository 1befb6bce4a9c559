package replays

import (
	"context"
	"testing"
	"time"

	"github.com/reusee/dscope"
	"github.com/reusee/hanalyzer/hconfigs"
	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/modes"
	"github.com/reusee/hanalyzer/remotes"
	"github.com/reusee/hanalyzer/remotes/remotestest"
)

func newTestController(t *testing.T) (*Controller, *remotestest.Client) {
	client := new(remotestest.Client)
	var controller *Controller
	dscope.New(new(Module), modes.ForTest(t)).Fork(
		func() remotes.Client {
			return client
		},
		func() hconfigs.ListInterval {
			return hconfigs.ListInterval(time.Second)
		},
	).Call(func(
		newController NewController,
	) {
		controller = newController(context.Background())
	})
	return controller, client
}

func indexes(frames []models.Frame) []uint64 {
	var ret []uint64
	for _, f := range frames {
		ret = append(ret, f.Index)
	}
	return ret
}

func TestLoopReset(t *testing.T) {
	c, client := newTestController(t)
	c.SelectSession("drive")

	var sizes []int
	for _, index := range []uint64{0, 1, 2, 0, 1} {
		c.Tick(100)
		call := remotestest.Last(client.Frames)
		if call.Req.Session != "drive" || call.Req.Index != uint64(len(c.History())) {
			t.Fatalf("got %+v", call.Req)
		}
		call.Resolve(models.Frame{Index: index})
		c.Tick(100)
		sizes = append(sizes, len(c.History()))
	}

	if got := indexes(c.History()); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Fatalf("got %v", got)
	}
	want := []int{1, 2, 3, 1, 2}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("got %v", sizes)
		}
	}
	if c.Epoch() != 1 {
		t.Fatalf("got %v", c.Epoch())
	}
}

func TestFetchGate(t *testing.T) {
	c, client := newTestController(t)
	c.Tick(10)
	if len(client.Frames) != 0 {
		t.Fatal("no session, no fetch")
	}

	c.SelectSession("drive")
	c.Tick(10)
	c.Tick(10)
	c.Tick(10)
	if len(client.Frames) != 1 {
		t.Fatal("at most one fetch in flight")
	}
	client.Frames[0].Resolve(models.Frame{Index: 0})
	c.Tick(1)
	c.Tick(1)
	if len(client.Frames) != 1 {
		t.Fatal("history holds all available frames")
	}

	c.Tick(2)
	client.Frames[1].Fail(remotes.ErrTransport)
	c.Tick(2)
	if len(c.History()) != 1 || c.Err() == nil {
		t.Fatal()
	}
	c.Tick(2)
	if len(client.Frames) != 3 || client.Frames[2].Req.Index != 1 {
		t.Fatal("failed fetch should be retried on the next tick")
	}
}

func TestSessionSwitch(t *testing.T) {
	c, client := newTestController(t)
	c.SelectSession("a")
	c.Tick(10)
	client.Frames[0].Resolve(models.Frame{Index: 0})
	c.Tick(10)
	if len(c.History()) != 1 {
		t.Fatal()
	}
	c.Tick(10)

	c.SelectSession("b")
	if len(c.History()) != 0 {
		t.Fatal("history should be cleared")
	}
	if !client.Frames[1].Canceled() {
		t.Fatal("fetch for previous session should be canceled")
	}
	client.Frames[1].Resolve(models.Frame{Index: 1})
	c.Tick(10)
	if len(c.History()) != 0 {
		t.Fatal("frame of previous session applied")
	}
	c.Tick(10)
	if last := remotestest.Last(client.Frames); last.Req.Session != "b" || last.Req.Index != 0 {
		t.Fatalf("got %+v", last.Req)
	}

	c.SelectSession("b")
	if len(client.Frames) != 3 || client.Frames[2].Canceled() {
		t.Fatal("selecting the same session is a no-op")
	}
}

func TestReselectDropsEarlierFetch(t *testing.T) {
	c, client := newTestController(t)
	c.SelectSession("a")
	for i := range 5 {
		c.Tick(100)
		remotestest.Last(client.Frames).Resolve(models.Frame{Index: uint64(i)})
		c.Tick(100)
	}
	c.Tick(100)
	inflight := remotestest.Last(client.Frames)
	if inflight.Req.Index != 5 {
		t.Fatalf("got %+v", inflight.Req)
	}

	c.SelectSession("b")
	c.SelectSession("a")
	if !inflight.Canceled() {
		t.Fatal("expected canceled fetch")
	}
	inflight.Resolve(models.Frame{Index: 5})
	c.Tick(100)
	if len(c.History()) != 0 {
		t.Fatalf("got %v", indexes(c.History()))
	}

	c.Tick(100)
	call := remotestest.Last(client.Frames)
	if call == inflight || call.Req.Session != "a" || call.Req.Index != 0 {
		t.Fatalf("got %+v", call.Req)
	}
	call.Resolve(models.Frame{Index: 0})
	c.Tick(100)
	c.Tick(100)
	remotestest.Last(client.Frames).Resolve(models.Frame{Index: 1})
	c.Tick(100)
	if got := indexes(c.History()); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Fatalf("got %v", got)
	}
	if c.Epoch() != 0 {
		t.Fatalf("got %v", c.Epoch())
	}
}

func TestReselectDropsEarlierInfo(t *testing.T) {
	c, client := newTestController(t)
	c.SelectSession("a")
	c.Update()
	stale := client.Infos[0]
	c.SelectSession("b")
	c.SelectSession("a")
	stale.Resolve(models.ReplayInfo{Session: "a", TotalFrames: 3})
	c.Update()
	if _, ok := c.Total(); ok {
		t.Fatal("info of earlier selection applied")
	}
	c.Update()
	if len(client.Infos) != 2 {
		t.Fatalf("got %d info calls", len(client.Infos))
	}
}

func TestLatencyWindow(t *testing.T) {
	c, client := newTestController(t)
	now := time.Unix(0, 0)
	c.now = func() time.Time {
		return now
	}
	c.SelectSession("drive")
	for i := range 15 {
		c.Tick(100)
		now = now.Add(time.Duration(i+1) * time.Millisecond)
		remotestest.Last(client.Frames).Resolve(models.Frame{Index: uint64(i)})
		c.Tick(100)
	}
	latencies := c.Latencies()
	if len(latencies) != LatencyWindow {
		t.Fatalf("got %v", latencies)
	}
	if latencies[0] != 6*time.Millisecond || latencies[9] != 15*time.Millisecond {
		t.Fatalf("got %v", latencies)
	}
	if mean := c.MeanLatency(); mean != 10500*time.Microsecond {
		t.Fatalf("got %v", mean)
	}
}

func TestCursor(t *testing.T) {
	c, client := newTestController(t)
	c.SelectSession("drive")
	if _, ok := c.Current(); ok {
		t.Fatal()
	}
	for i := range 3 {
		c.Tick(3)
		remotestest.Last(client.Frames).Resolve(models.Frame{Index: uint64(i)})
		c.Tick(3)
	}
	if c.Cursor() != 0 {
		t.Fatal("cursor moves only when playing")
	}

	c.Step()
	if frame, _ := c.Current(); frame.Index != 1 {
		t.Fatalf("got %+v", frame)
	}
	c.Play()
	c.Tick(3)
	c.Tick(3)
	if c.Cursor() != 2 || !c.Playing() {
		t.Fatalf("got %v", c.Cursor())
	}
	c.Pause()
	c.Seek(-5)
	if c.Cursor() != 0 {
		t.Fatal()
	}
	c.Seek(99)
	if c.Cursor() != 2 {
		t.Fatal()
	}
}

func TestUpdateFetchesInfo(t *testing.T) {
	c, client := newTestController(t)
	now := time.Unix(0, 0)
	c.now = func() time.Time {
		return now
	}
	c.SelectSession("drive")
	c.Update()
	c.Update()
	if len(client.Infos) != 1 || len(client.Frames) != 0 {
		t.Fatal("frames are fetched once the total is known")
	}
	client.Infos[0].Resolve(models.ReplayInfo{Session: "drive", TotalFrames: 2})
	c.Update()
	if total, ok := c.Total(); !ok || total != 2 || len(client.Frames) != 1 {
		t.Fatal()
	}
	client.Frames[0].Resolve(models.Frame{Index: 0})
	c.Update()
	c.Update()
	client.Frames[1].Resolve(models.Frame{Index: 1})
	c.Update()
	if len(c.History()) != 2 {
		t.Fatal()
	}

	c.Update()
	if len(client.Infos) != 1 {
		t.Fatal("refresh should wait for the interval")
	}
	now = now.Add(time.Second)
	c.Update()
	if len(client.Infos) != 2 {
		t.Fatal("caught up history should refresh the total")
	}
	client.Infos[1].Fail(remotes.ErrNotFound)
	c.Update()
	c.Update()
	if len(client.Infos) != 2 {
		t.Fatal("missing session should not be polled again")
	}
}
