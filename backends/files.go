package backends

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/tables"
)

const maxRequestSize = 1 << 20

func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
}

// resolve maps a requested path to a path under the root. Relative paths are
// relative to the root. Symlinks are followed, and must stay under the root.
func (b *Backend) resolve(p string) (string, error) {
	if p == "" {
		return b.root, nil
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(b.root, p)
	}
	p = filepath.Clean(p)
	if !b.underRoot(p) {
		return "", fmt.Errorf("%w: %s", errEscape, p)
	}
	target, err := filepath.EvalSymlinks(p)
	if err != nil {
		return "", err
	}
	if !b.underRoot(target) {
		return "", fmt.Errorf("%w: %s -> %s", errEscape, p, target)
	}
	return target, nil
}

func (b *Backend) underRoot(p string) bool {
	rel, err := filepath.Rel(b.root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (b *Backend) handleDefaultPath(w http.ResponseWriter, r *http.Request) {
	b.reply(w, r, models.PathMessage{
		Path: b.root,
	})
}

func (b *Backend) handleList(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[models.PathMessage](w, r, b)
	if !ok {
		return
	}
	listing, err := b.List(req.Path)
	if err != nil {
		b.failFor(w, r, err)
		return
	}
	b.reply(w, r, listing)
}

// List reads one directory. Entries are sorted by name.
func (b *Backend) List(p string) (ret models.Listing, err error) {
	dir, err := b.resolve(p)
	if err != nil {
		return ret, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ret, err
	}
	ret.Path = dir
	ret.Directories = []string{}
	ret.Files = []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			ret.Directories = append(ret.Directories, entry.Name())
		} else {
			ret.Files = append(ret.Files, entry.Name())
		}
	}
	slices.Sort(ret.Directories)
	slices.Sort(ret.Files)
	return ret, nil
}

func (b *Backend) handleManifest(w http.ResponseWriter, r *http.Request) {
	b.reply(w, r, b.Manifest())
}

func (b *Backend) handleSave(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[[]models.LoadDescriptor](w, r, b)
	if !ok {
		return
	}
	b.SetManifest(req)
	b.logger.InfoContext(r.Context(), "manifest saved", "datasets", len(req))
	b.reply(w, r, struct{}{})
}

func (b *Backend) handleLoad(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[models.LoadDescriptor](w, r, b)
	if !ok {
		return
	}
	table, err := b.Load(req)
	if err != nil {
		b.failFor(w, r, err)
		return
	}
	b.stream(w, r, table)
}

// Load parses a delimited text file. Files that do not sniff as text are
// refused.
func (b *Backend) Load(descriptor models.LoadDescriptor) (ret tables.Table, err error) {
	p, err := b.resolve(descriptor.Path)
	if err != nil {
		return ret, err
	}
	format, err := descriptor.Format()
	if err != nil {
		return ret, err
	}

	f, err := os.Open(p)
	if err != nil {
		return ret, err
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return ret, err
	}
	isText := false
	for t := mtype; t != nil; t = t.Parent() {
		if t.Is("text/plain") {
			isText = true
			break
		}
	}
	if !isText {
		return ret, fmt.Errorf("%w: %s is %s", errNotText, p, mtype.String())
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return ret, err
	}

	ret, err = tables.ParseDelimited(f, format)
	if err != nil {
		return ret, fmt.Errorf("parse %s: %w", p, err)
	}
	return ret, nil
}
