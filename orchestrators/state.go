package orchestrators

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/reusee/hanalyzer/datasets"
	"github.com/reusee/hanalyzer/models"
	"gopkg.in/yaml.v3"
)

// State is what survives a restart: where the user was and what was loaded.
// Payloads and in-flight operations are never persisted.
type State struct {
	Path     string                  `yaml:"path,omitempty"`
	Session  string                  `yaml:"session,omitempty"`
	Datasets []models.LoadDescriptor `yaml:"datasets,omitempty"`
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return State{
		Path:     o.fs.Path(),
		Session:  o.replay.Session(),
		Datasets: o.datasets.Descriptors(),
	}
}

// Restore applies a saved state. Restored datasets are queued without
// confirmation.
func (o *Orchestrator) Restore(state State) []datasets.ID {
	o.mu.Lock()
	defer o.mu.Unlock()
	if state.Path != "" {
		o.fs.RequestListing(state.Path)
	}
	if state.Session != "" {
		o.replay.SelectSession(state.Session)
	}
	var ids []datasets.ID
	for _, descriptor := range state.Datasets {
		ids = append(ids, o.datasets.EnqueueConfirmed(descriptor))
	}
	return ids
}

// SaveState writes the state file. An empty state file path disables it.
func (o *Orchestrator) SaveState() error {
	if o.stateFile == "" {
		return nil
	}
	content, err := yaml.Marshal(o.State())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(o.stateFile), 0o755); err != nil {
		return err
	}
	tmp := o.stateFile + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, o.stateFile); err != nil {
		return err
	}
	o.logger.InfoContext(o.ctx, "state saved", "file", o.stateFile)
	return nil
}

// LoadState restores the state file if it exists.
func (o *Orchestrator) LoadState() error {
	if o.stateFile == "" {
		return nil
	}
	content, err := os.ReadFile(o.stateFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}
	var state State
	if err := yaml.Unmarshal(content, &state); err != nil {
		return fmt.Errorf("state file %s: %w", o.stateFile, err)
	}
	ids := o.Restore(state)
	o.logger.InfoContext(o.ctx, "state restored",
		"file", o.stateFile,
		"path", state.Path,
		"session", state.Session,
		"datasets", len(ids),
	)
	return nil
}
