// Package replays fetches a replay session frame by frame into an append-only
// history and moves a display cursor over it.
package replays

import (
	"context"
	"time"

	"github.com/reusee/hanalyzer/logs"
	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/remotes"
	"github.com/reusee/hanalyzer/tasks"
)

type Controller struct {
	ctx     context.Context
	client  remotes.Client
	logger  logs.Logger
	newSpan logs.NewSpan
	now     func() time.Time

	session    string
	selection  uint64
	sessionCtx context.Context
	history    []models.Frame
	epoch      int

	cursor  int
	playing bool

	fetchSlot      tasks.Slot[models.Frame]
	fetchSelection uint64
	fetchStarted   time.Time
	latencies      latencies

	infoSlot      tasks.Slot[models.ReplayInfo]
	infoSelection uint64
	infoInterval  time.Duration
	infoAt        time.Time
	total         uint64
	totalKnown    bool
	infoFailed    bool

	err error
}

// New returns a controller with no session selected. infoInterval spaces the
// info refreshes issued once the history has caught up with the total.
func New(ctx context.Context, client remotes.Client, logger logs.Logger, newSpan logs.NewSpan, infoInterval time.Duration) *Controller {
	return &Controller{
		ctx:          ctx,
		client:       client,
		logger:       logger,
		newSpan:      newSpan,
		now:          time.Now,
		sessionCtx:   ctx,
		infoInterval: infoInterval,
	}
}

// SelectSession switches to another session and clears the history. Fetches
// issued before the switch are canceled and their results dropped, even when
// a later switch selects their session again.
func (c *Controller) SelectSession(name string) {
	if name == c.session {
		return
	}
	c.fetchSlot.Cancel()
	c.infoSlot.Cancel()
	c.selection++
	c.session = name
	c.history = nil
	c.epoch = 0
	c.cursor = 0
	c.total = 0
	c.totalKnown = false
	c.infoFailed = false
	c.infoAt = time.Time{}
	c.err = nil
	c.sessionCtx = c.ctx
	if name != "" {
		c.sessionCtx, _ = c.newSpan(c.ctx, "", "replay session")
		c.logger.InfoContext(c.sessionCtx, "replay session", "session", name)
	}
}

// Update refreshes the session info when needed and then ticks with the known
// frame count.
func (c *Controller) Update() {
	c.tickInfo()
	if c.totalKnown {
		c.Tick(c.total)
	} else {
		c.Tick(0)
	}
}

func (c *Controller) tickInfo() {
	if c.session != "" && !c.infoFailed && c.infoSlot.Empty() {
		caughtUp := uint64(len(c.history)) >= c.total && c.fetchSlot.Empty()
		refresh := caughtUp && c.now().Sub(c.infoAt) >= c.infoInterval
		if !c.totalKnown || refresh {
			c.infoSelection = c.selection
			c.infoAt = c.now()
			c.infoSlot.Set(c.client.ReplayInfo(c.sessionCtx, c.session))
		}
	}

	poll := c.infoSlot.Poll()
	if !poll.Ready {
		return
	}
	if c.infoSelection != c.selection {
		c.logger.DebugContext(c.ctx, "drop info of previous selection")
		return
	}
	if poll.Err != nil {
		c.err = poll.Err
		if !remotes.Retryable(poll.Err) {
			c.infoFailed = true
		}
		c.logger.DebugContext(c.sessionCtx, "replay info", "error", poll.Err)
		return
	}
	c.total = poll.Value.TotalFrames
	c.totalKnown = true
}

// Tick fetches the next frame when none is in flight and fewer than total
// frames are held, applies an arrived frame, and advances a playing cursor.
// It never blocks.
func (c *Controller) Tick(total uint64) {
	if c.session != "" && c.fetchSlot.Empty() && uint64(len(c.history)) < total {
		c.fetchSelection = c.selection
		c.fetchStarted = c.now()
		c.fetchSlot.Set(c.client.ReplayFrame(c.sessionCtx, c.session, uint64(len(c.history))))
	}

	if poll := c.fetchSlot.Poll(); poll.Ready {
		c.apply(poll)
	}

	if c.playing {
		if c.cursor+1 < len(c.history) {
			c.cursor++
		}
	}
}

func (c *Controller) apply(poll tasks.Poll[models.Frame]) {
	if c.fetchSelection != c.selection {
		c.logger.DebugContext(c.ctx, "drop frame of previous selection",
			"index", poll.Value.Index,
		)
		return
	}
	if poll.Err != nil {
		c.err = poll.Err
		c.logger.DebugContext(c.sessionCtx, "replay frame",
			"index", len(c.history),
			"error", poll.Err,
		)
		if !remotes.Retryable(poll.Err) {
			// the session shrank or went away
			c.totalKnown = false
		}
		return
	}

	frame := poll.Value
	if n := len(c.history); n > 0 && frame.Index <= c.history[n-1].Index {
		c.logger.InfoContext(c.sessionCtx, "replay looped",
			"index", frame.Index,
			"last", c.history[n-1].Index,
			"epoch", c.epoch+1,
		)
		c.history = c.history[:0:0]
		c.epoch++
		c.cursor = 0
	}
	c.history = append(c.history, frame)
	c.latencies.add(c.now().Sub(c.fetchStarted))
	c.err = nil
}

func (c *Controller) Play() {
	c.playing = true
}

func (c *Controller) Pause() {
	c.playing = false
}

// Step pauses and moves the cursor one frame forward.
func (c *Controller) Step() {
	c.playing = false
	if c.cursor+1 < len(c.history) {
		c.cursor++
	}
}

// Seek moves the cursor, clamped to the history.
func (c *Controller) Seek(i int) {
	c.cursor = max(0, min(i, len(c.history)-1))
}

func (c *Controller) Session() string {
	return c.session
}

// History returns the fetched frames in ascending index order. Readers must
// not modify it.
func (c *Controller) History() []models.Frame {
	return c.history
}

// Current returns the frame under the cursor.
func (c *Controller) Current() (models.Frame, bool) {
	if c.cursor >= len(c.history) {
		return models.Frame{}, false
	}
	return c.history[c.cursor], true
}

func (c *Controller) Cursor() int {
	return c.cursor
}

func (c *Controller) Playing() bool {
	return c.playing
}

// Epoch counts the loop resets of the current session.
func (c *Controller) Epoch() int {
	return c.epoch
}

// Total is the frame count last reported by the backend.
func (c *Controller) Total() (uint64, bool) {
	return c.total, c.totalKnown
}

// Latencies returns the recent fetch round trips, oldest first.
func (c *Controller) Latencies() []time.Duration {
	return c.latencies.list()
}

func (c *Controller) MeanLatency() time.Duration {
	return c.latencies.mean()
}

func (c *Controller) Err() error {
	return c.err
}
