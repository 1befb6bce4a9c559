package main

import (
	"context"
	"time"

	"github.com/reusee/hanalyzer/datasets"
	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/orchestrators"
)

// globals exposes the orchestrator to starlark consoles and scripts.
// Scripts run while drive calls Update in the background, so sleep lets
// pending work settle.
func globals(ctx context.Context, o *orchestrators.Orchestrator) map[string]any {
	return map[string]any{
		"snapshot": func() orchestrators.Snapshot {
			return o.Snapshot()
		},
		"enqueue": func(filePath string, sourceType string) (int, error) {
			t, err := models.ParseSourceType(sourceType)
			if err != nil {
				return 0, err
			}
			id := o.EnqueueDataset(models.NewLoadDescriptor(filePath, t))
			return int(id), nil
		},
		"confirm": func(id int) {
			o.Confirm(datasets.ID(id))
		},
		"cancel": func(id int) {
			o.Cancel(datasets.ID(id))
		},
		"retry": func(id int) {
			o.Retry(datasets.ID(id))
		},
		"state": func(id int) string {
			state, ok := o.DatasetState(datasets.ID(id))
			if !ok {
				return ""
			}
			return state.String()
		},
		"list": func(dir string) {
			o.RequestListing(dir)
		},
		"up": func() {
			o.Up()
		},
		"session": func(name string) {
			o.SetSession(name)
		},
		"play": func() {
			o.Play()
		},
		"pause": func() {
			o.Pause()
		},
		"step": func() {
			o.Step()
		},
		"seek": func(i int) {
			o.Seek(i)
		},
		"save": func() bool {
			return o.SaveManifest()
		},
		"save_state": func() error {
			return o.SaveState()
		},
		"sleep": func(ms int) {
			select {
			case <-ctx.Done():
			case <-time.After(time.Duration(ms) * time.Millisecond):
			}
		},
	}
}
