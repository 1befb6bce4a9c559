// Package backends is a reference implementation of the remote protocol. It
// serves a directory tree, in-memory series feeds and replay sessions, and is
// used by the development server and by tests.
package backends

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/reusee/hanalyzer/codecs"
	"github.com/reusee/hanalyzer/logs"
	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/remotes"
)

type Backend struct {
	root      string
	logger    logs.Logger
	chunkSize int

	mu       sync.Mutex
	manifest []models.LoadDescriptor
	feeds    map[models.SeriesID]*Feed
	sessions map[string]*Session
}

var (
	errEscape   = errors.New("path outside served root")
	errNotText  = errors.New("not a text file")
	errNotFound = errors.New("no such entry")
)

func New(root string, logger logs.Logger) (*Backend, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	b := &Backend{
		root:      abs,
		logger:    logger,
		chunkSize: codecs.DefaultChunkSize,
		feeds:     make(map[models.SeriesID]*Feed),
		sessions:  make(map[string]*Session),
	}
	if err := b.loadReplayFiles(); err != nil {
		return nil, err
	}
	return b, nil
}

// SetChunkSize changes the size streamed payloads are split into.
func (b *Backend) SetChunkSize(n int) {
	b.chunkSize = n
}

func (b *Backend) SetManifest(descriptors []models.LoadDescriptor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.manifest = descriptors
}

func (b *Backend) Manifest() []models.LoadDescriptor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.LoadDescriptor(nil), b.manifest...)
}

func (b *Backend) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+remotes.PathDefaultPath, b.handleDefaultPath)
	mux.HandleFunc("POST "+remotes.PathList, b.handleList)
	mux.HandleFunc("POST "+remotes.PathManifest, b.handleManifest)
	mux.HandleFunc("POST "+remotes.PathSave, b.handleSave)
	mux.HandleFunc("POST "+remotes.PathLoad, b.handleLoad)
	mux.HandleFunc("POST "+remotes.PathSeriesList, b.handleSeriesList)
	mux.HandleFunc("POST "+remotes.PathSeriesPoll, b.handleSeriesPoll)
	mux.HandleFunc("POST "+remotes.PathReplayInfo, b.handleReplayInfo)
	mux.HandleFunc("POST "+remotes.PathReplayFrame, b.handleReplayFrame)
	return mux
}

func decodeRequest[T any](w http.ResponseWriter, r *http.Request, b *Backend) (req T, ok bool) {
	data, err := readBody(r)
	if err == nil {
		req, err = codecs.Decode[T](data)
	}
	if err != nil {
		b.fail(w, r, http.StatusBadRequest, err)
		return req, false
	}
	return req, true
}

func (b *Backend) reply(w http.ResponseWriter, r *http.Request, v any) {
	data, err := codecs.Encode(v)
	if err != nil {
		b.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", remotes.ContentType)
	if _, err := w.Write(data); err != nil {
		b.logger.DebugContext(r.Context(), "write response", "error", err)
	}
}

// stream writes v as a chunked payload.
func (b *Backend) stream(w http.ResponseWriter, r *http.Request, v any) {
	data, err := codecs.Encode(v)
	if err != nil {
		b.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", remotes.ChunkedType)
	if err := codecs.NewChunkWriter(w).WriteChunked(data, b.chunkSize); err != nil {
		b.logger.DebugContext(r.Context(), "write stream", "error", err)
	}
}

func (b *Backend) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	b.logger.InfoContext(r.Context(), "request failed",
		"path", r.URL.Path,
		"request", r.Header.Get(remotes.RequestIDHeader),
		"status", status,
		"error", err,
	)
	data, encErr := codecs.Encode(models.ErrorResponse{
		Message: err.Error(),
	})
	if encErr != nil {
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", remotes.ContentType)
	w.WriteHeader(status)
	w.Write(data)
}

// failFor picks the status for err.
func (b *Backend) failFor(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, errNotFound):
		b.fail(w, r, http.StatusNotFound, err)
	case errors.Is(err, errEscape), errors.Is(err, errNotText), errors.Is(err, fs.ErrPermission):
		b.fail(w, r, http.StatusForbidden, err)
	default:
		b.fail(w, r, http.StatusUnprocessableEntity, err)
	}
}

func notFound(what string, name any) error {
	return fmt.Errorf("%w: %s %v", errNotFound, what, name)
}
