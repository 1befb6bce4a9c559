package main

import (
	"context"
	"time"

	"github.com/reusee/hanalyzer/logs"
	"github.com/reusee/hanalyzer/orchestrators"
)

// drive calls Update at the frame rate until ctx is done. report, if not nil,
// receives a snapshot once per second.
func drive(ctx context.Context, o *orchestrators.Orchestrator, interval time.Duration, report func(orchestrators.Snapshot)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	lastReport := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			o.Update()
			if report != nil && now.Sub(lastReport) >= time.Second {
				lastReport = now
				report(o.Snapshot())
			}
		}
	}
}

func logSnapshot(ctx context.Context, logger logs.Logger, s orchestrators.Snapshot) {
	counts := make(map[string]int)
	for _, d := range s.Datasets {
		counts[d.State.String()]++
	}
	args := []any{
		"path", s.Path,
		"files", len(s.Listing.Files),
		"datasets", counts,
		"series", len(s.Series),
	}
	if s.Replay.Session != "" {
		args = append(args,
			"session", s.Replay.Session,
			"frames", s.Replay.Frames,
			"epoch", s.Replay.Epoch,
			"latency", s.Replay.MeanLatency,
		)
	}
	logger.InfoContext(ctx, "state", args...)
}
