package backends

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/reusee/dscope"
	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/modes"
	"github.com/reusee/hanalyzer/tables"
)

func newTestBackend(t *testing.T, files map[string]string) *Backend {
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	var backend *Backend
	dscope.New(new(Module), modes.ForTest(t)).Fork(
		func() Root {
			return Root(dir)
		},
	).Call(func(
		b *Backend,
	) {
		backend = b
	})
	return backend
}

func TestList(t *testing.T) {
	b := newTestBackend(t, map[string]string{
		"b.csv":       "x\n1\n",
		"a.csv":       "x\n1\n",
		"runs/00.txt": "1 2\n",
	})
	listing, err := b.List("")
	if err != nil {
		t.Fatal(err)
	}
	if len(listing.Directories) != 1 || listing.Directories[0] != "runs" {
		t.Fatalf("got %+v", listing)
	}
	if len(listing.Files) != 2 || listing.Files[0] != "a.csv" || listing.Files[1] != "b.csv" {
		t.Fatalf("got %+v", listing)
	}

	listing, err = b.List("runs")
	if err != nil {
		t.Fatal(err)
	}
	if listing.Path != filepath.Join(b.root, "runs") || len(listing.Files) != 1 {
		t.Fatalf("got %+v", listing)
	}

	if _, err := b.List("../"); !errors.Is(err, errEscape) {
		t.Fatalf("got %v", err)
	}
	if _, err := b.List("nope"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("got %v", err)
	}
}

func TestSymlinkConfinement(t *testing.T) {
	b := newTestBackend(t, map[string]string{
		"runs/00.txt": "1 2\n",
	})
	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "secret.csv"), []byte("x\n1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(b.root, "out")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(outside, "secret.csv"), filepath.Join(b.root, "secret.csv")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(b.root, "runs"), filepath.Join(b.root, "latest")); err != nil {
		t.Fatal(err)
	}

	if _, err := b.List("out"); !errors.Is(err, errEscape) {
		t.Fatalf("got %v", err)
	}
	if _, err := b.Load(models.NewLoadDescriptor("out/secret.csv", models.CommaSep)); !errors.Is(err, errEscape) {
		t.Fatalf("got %v", err)
	}
	if _, err := b.Load(models.NewLoadDescriptor("secret.csv", models.CommaSep)); !errors.Is(err, errEscape) {
		t.Fatalf("got %v", err)
	}

	listing, err := b.List("latest")
	if err != nil {
		t.Fatal(err)
	}
	if listing.Path != filepath.Join(b.root, "runs") || len(listing.Files) != 1 {
		t.Fatalf("got %+v", listing)
	}
}

func TestLoad(t *testing.T) {
	b := newTestBackend(t, map[string]string{
		"run.csv":  "t,x,label\n0,1.5,a\n1,2.5,b\n",
		"00.txt":   "1 2 3\n4 5 6\n",
		"blob.bin": "\x00\x01\x02\x03\xff\xfe\x00\x00",
	})

	table, err := b.Load(models.NewLoadDescriptor("run.csv", models.CommaSep))
	if err != nil {
		t.Fatal(err)
	}
	if table.NumRows() != 2 {
		t.Fatalf("got %v", table.NumRows())
	}
	if c, ok := table.Column("label"); !ok || c.Kind != tables.Text {
		t.Fatalf("got %+v", c)
	}

	table, err = b.Load(models.NewLoadDescriptor(filepath.Join(b.root, "00.txt"), models.KITTI))
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Columns) != 3 || table.NumRows() != 2 {
		t.Fatalf("got %+v", table)
	}

	if _, err := b.Load(models.NewLoadDescriptor("blob.bin", models.CommaSep)); !errors.Is(err, errNotText) {
		t.Fatalf("got %v", err)
	}
	if _, err := b.Load(models.NewLoadDescriptor("missing.csv", models.CommaSep)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("got %v", err)
	}
	if _, err := b.Load(models.NewLoadDescriptor("/etc/passwd", models.CommaSep)); !errors.Is(err, errEscape) {
		t.Fatalf("got %v", err)
	}
}

func TestScriptedFeed(t *testing.T) {
	b := newTestBackend(t, nil)
	rows := tables.New(tables.ColumnSpec{Name: "t", Kind: tables.Numeric})
	b.AddScriptedFeed("a", models.Point, models.SeriesDelta{
		Command: models.Reset,
		Rows:    rows,
	})
	b.AddSyntheticFeed("b", models.Pose, 3, 6)

	list := b.seriesList()
	if len(list) != 2 || list[0].ID != "a" || list[1].Kind != models.Pose {
		t.Fatalf("got %+v", list)
	}

	delta, err := b.poll("a")
	if err != nil || delta.Command != models.Reset {
		t.Fatalf("got %+v %v", delta, err)
	}
	delta, err = b.poll("a")
	if err != nil || delta.Command != models.Append || delta.Rows.NumRows() != 0 || len(delta.Rows.Columns) != 3 {
		t.Fatalf("got %+v %v", delta, err)
	}

	var commands []models.SeriesCommand
	for range 3 {
		delta, err := b.poll("b")
		if err != nil {
			t.Fatal(err)
		}
		if delta.Rows.NumRows() != 3 || len(delta.Rows.Columns) != 4 {
			t.Fatalf("got %+v", delta.Rows)
		}
		commands = append(commands, delta.Command)
	}
	if commands[0] != models.Append || commands[1] != models.Append || commands[2] != models.Reset {
		t.Fatalf("got %v", commands)
	}

	if _, err := b.poll("c"); !errors.Is(err, errNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestReplaySessions(t *testing.T) {
	b := newTestBackend(t, map[string]string{
		"drive" + models.ReplayFileSuffix: `
frames:
  - timestamp: 0.1
    entities:
      - id: car
        x: 1
        y: 2
  - timestamp: 0.2
`,
	})

	info, err := b.replayInfo("drive")
	if err != nil {
		t.Fatal(err)
	}
	if info.TotalFrames != 2 {
		t.Fatalf("got %+v", info)
	}
	frame, err := b.frame("drive", 1)
	if err != nil || frame.Index != 1 || frame.Timestamp != 0.2 {
		t.Fatalf("got %+v %v", frame, err)
	}
	if _, err := b.frame("drive", 2); !errors.Is(err, errNotFound) {
		t.Fatalf("got %v", err)
	}

	b.AddSession(&Session{
		Name:   "loop",
		Loop:   true,
		Frames: make([]models.Frame, 3),
	})
	info, err = b.replayInfo("loop")
	if err != nil || info.TotalFrames != math.MaxUint64 {
		t.Fatalf("got %+v %v", info, err)
	}
	frame, err = b.frame("loop", 4)
	if err != nil || frame.Index != 1 {
		t.Fatalf("got %+v %v", frame, err)
	}

	if _, err := b.replayInfo("nope"); !errors.Is(err, errNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestManifest(t *testing.T) {
	b := newTestBackend(t, nil)
	b.SetManifest([]models.LoadDescriptor{
		models.NewLoadDescriptor("a.csv", models.CommaSep),
	})
	m := b.Manifest()
	m[0].Path = "changed"
	if b.Manifest()[0].Path != "a.csv" {
		t.Fatal("manifest should be copied")
	}
}
