// Package filesystems caches the backend default path and the last directory
// listing.
package filesystems

import (
	"context"
	"path"
	"slices"

	"github.com/reusee/hanalyzer/logs"
	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/remotes"
	"github.com/reusee/hanalyzer/tasks"
)

// Cache holds at most one outstanding list request. A request for another
// path while one is in flight cancels it; its result is dropped when it
// arrives and the wanted path is listed next. A request for the same path,
// like a refresh, lets the earlier listing land and then lists again.
type Cache struct {
	ctx    context.Context
	client remotes.Client
	logger logs.Logger

	defaultPath  string
	defaultKnown bool
	defaultSlot  tasks.Slot[string]

	listing    models.Listing
	hasListing bool
	wanted     string
	pending    bool
	listSlot   tasks.Slot[models.Listing]
	listPath   string
	listSeq    uint64
	requestSeq uint64
	err        error
}

func New(ctx context.Context, client remotes.Client, logger logs.Logger) *Cache {
	return &Cache{
		ctx:    ctx,
		client: client,
		logger: logger,
	}
}

// Tick advances the cache. It never blocks.
func (c *Cache) Tick() {
	c.tickDefault()

	if c.pending && c.listSlot.Empty() {
		c.listPath = c.wanted
		c.listSeq = c.requestSeq
		c.listSlot.Set(c.client.ListDirectory(c.ctx, c.wanted))
	}

	poll := c.listSlot.Poll()
	if !poll.Ready {
		return
	}
	if c.listPath != c.wanted {
		c.logger.DebugContext(c.ctx, "drop superseded listing",
			"path", c.listPath,
			"wanted", c.wanted,
		)
		return
	}
	// issued before the latest request for the same path
	outdated := c.listSeq != c.requestSeq
	if poll.Err != nil {
		c.logger.DebugContext(c.ctx, "list directory",
			"path", c.listPath,
			"error", poll.Err,
		)
		if outdated {
			return
		}
		c.err = poll.Err
		if !remotes.Retryable(poll.Err) {
			c.pending = false
		}
		return
	}
	listing := poll.Value
	listing.Directories = slices.Sorted(slices.Values(listing.Directories))
	listing.Files = slices.Sorted(slices.Values(listing.Files))
	c.listing = listing
	c.hasListing = true
	if !outdated {
		c.pending = false
		c.err = nil
	}
}

func (c *Cache) tickDefault() {
	if c.defaultKnown {
		return
	}
	if c.defaultSlot.Empty() {
		c.defaultSlot.Set(c.client.DefaultPath(c.ctx))
	}
	poll := c.defaultSlot.Poll()
	if !poll.Ready {
		return
	}
	if poll.Err != nil {
		c.logger.DebugContext(c.ctx, "default path", "error", poll.Err)
		if !remotes.Retryable(poll.Err) {
			c.defaultKnown = true
		}
		return
	}
	c.defaultPath = poll.Value
	c.defaultKnown = true
	if c.wanted == "" && !c.pending {
		c.RequestListing(poll.Value)
	}
}

// RequestListing asks for path to become the current listing.
func (c *Cache) RequestListing(p string) {
	c.wanted = p
	c.pending = true
	c.requestSeq++
	c.err = nil
	if !c.listSlot.Empty() && c.listPath != p {
		c.listSlot.Cancel()
	}
}

// Enter lists a directory of the current listing.
func (c *Cache) Enter(dir string) {
	c.RequestListing(path.Join(c.Path(), dir))
}

// Up lists the parent directory. It does nothing at the root.
func (c *Cache) Up() {
	p := c.Path()
	parent := path.Dir(p)
	if p == "" || parent == p {
		return
	}
	c.RequestListing(parent)
}

// Refresh lists the current path again.
func (c *Cache) Refresh() {
	if p := c.Path(); p != "" {
		c.RequestListing(p)
	}
}

// Path is the path being shown or requested.
func (c *Cache) Path() string {
	if c.wanted != "" {
		return c.wanted
	}
	return c.listing.Path
}

func (c *Cache) DefaultPath() string {
	return c.defaultPath
}

// Listing returns the last successful listing.
func (c *Cache) Listing() (models.Listing, bool) {
	return c.listing, c.hasListing
}

// Pending reports whether a listing for Path is still to arrive.
func (c *Cache) Pending() bool {
	return c.pending
}

// Err is the error of the last failed list request for the wanted path.
func (c *Cache) Err() error {
	return c.err
}
