package filesystems

import (
	"context"
	"errors"
	"testing"

	"github.com/reusee/dscope"
	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/modes"
	"github.com/reusee/hanalyzer/remotes"
	"github.com/reusee/hanalyzer/remotes/remotestest"
)

func newTestCache(t *testing.T) (*Cache, *remotestest.Client) {
	client := new(remotestest.Client)
	var cache *Cache
	dscope.New(new(Module), modes.ForTest(t)).Fork(
		func() remotes.Client {
			return client
		},
	).Call(func(
		newCache NewCache,
	) {
		cache = newCache(context.Background())
	})
	return cache, client
}

func TestDefaultPathThenList(t *testing.T) {
	cache, client := newTestCache(t)

	cache.Tick()
	if len(client.DefaultPaths) != 1 || len(client.Lists) != 0 {
		t.Fatalf("got %d %d", len(client.DefaultPaths), len(client.Lists))
	}
	cache.Tick()
	if len(client.DefaultPaths) != 1 {
		t.Fatal("default path requested twice")
	}

	client.DefaultPaths[0].Resolve("/data")
	cache.Tick()
	cache.Tick()
	if len(client.Lists) != 1 || client.Lists[0].Req != "/data" {
		t.Fatalf("got %+v", client.Lists)
	}
	if cache.DefaultPath() != "/data" || cache.Path() != "/data" || !cache.Pending() {
		t.Fatal()
	}

	client.Lists[0].Resolve(models.Listing{
		Path:        "/data",
		Directories: []string{"runs", "logs"},
		Files:       []string{"b.csv", "a.csv"},
	})
	cache.Tick()
	listing, ok := cache.Listing()
	if !ok {
		t.Fatal("expected listing")
	}
	if listing.Files[0] != "a.csv" || listing.Directories[0] != "logs" {
		t.Fatalf("got %+v", listing)
	}
	if cache.Pending() {
		t.Fatal()
	}

	cache.Tick()
	if len(client.Lists) != 1 {
		t.Fatal("settled listing must not be refetched")
	}
}

func TestSupersededListing(t *testing.T) {
	cache, client := newTestCache(t)
	cache.RequestListing("/a")
	cache.Tick()
	if len(client.Lists) != 1 {
		t.Fatal()
	}

	cache.RequestListing("/b")
	if !client.Lists[0].Canceled() {
		t.Fatal("superseded request should be canceled")
	}
	cache.Tick()
	if len(client.Lists) != 1 {
		t.Fatal("at most one list request in flight")
	}

	client.Lists[0].Resolve(models.Listing{Path: "/a"})
	cache.Tick()
	if _, ok := cache.Listing(); ok {
		t.Fatal("stale listing applied")
	}
	cache.Tick()
	if len(client.Lists) != 2 || client.Lists[1].Req != "/b" {
		t.Fatalf("got %+v", client.Lists)
	}
	client.Lists[1].Resolve(models.Listing{Path: "/b"})
	cache.Tick()
	if listing, _ := cache.Listing(); listing.Path != "/b" {
		t.Fatalf("got %+v", listing)
	}
}

func TestListingRetry(t *testing.T) {
	cache, client := newTestCache(t)
	cache.RequestListing("/a")
	cache.Tick()
	client.Lists[0].Fail(remotes.ErrTransport)
	cache.Tick()
	if !errors.Is(cache.Err(), remotes.ErrTransport) || !cache.Pending() {
		t.Fatal()
	}
	cache.Tick()
	if len(client.Lists) != 2 {
		t.Fatalf("got %d", len(client.Lists))
	}

	client.Lists[1].Fail(remotes.ErrNotFound)
	cache.Tick()
	cache.Tick()
	if len(client.Lists) != 2 {
		t.Fatal("not found should not be retried")
	}
	if cache.Pending() || !errors.Is(cache.Err(), remotes.ErrNotFound) {
		t.Fatal()
	}
}

func TestNavigation(t *testing.T) {
	cache, client := newTestCache(t)
	cache.RequestListing("/data")
	cache.Tick()
	client.Lists[0].Resolve(models.Listing{Path: "/data"})
	cache.Tick()

	cache.Enter("runs")
	if cache.Path() != "/data/runs" {
		t.Fatalf("got %v", cache.Path())
	}
	cache.Up()
	if cache.Path() != "/data" {
		t.Fatalf("got %v", cache.Path())
	}
	cache.RequestListing("/")
	cache.Up()
	if cache.Path() != "/" {
		t.Fatalf("got %v", cache.Path())
	}
	cache.Refresh()
	if !cache.Pending() {
		t.Fatal()
	}
}

func TestRefreshWhileInFlight(t *testing.T) {
	cache, client := newTestCache(t)
	cache.RequestListing("/data")
	cache.Tick()
	if len(client.Lists) != 1 {
		t.Fatalf("got %d", len(client.Lists))
	}

	cache.Refresh()
	cache.Tick()
	if len(client.Lists) != 1 {
		t.Fatal("at most one list request in flight")
	}
	if client.Lists[0].Canceled() {
		t.Fatal("same path request should not be canceled")
	}

	client.Lists[0].Resolve(models.Listing{
		Path:  "/data",
		Files: []string{"old.csv"},
	})
	cache.Tick()
	if _, ok := cache.Listing(); !ok {
		t.Fatal("expected listing")
	}
	if !cache.Pending() {
		t.Fatal("refresh absorbed by an earlier listing")
	}

	cache.Tick()
	if len(client.Lists) != 2 || client.Lists[1].Req != "/data" {
		t.Fatalf("got %d", len(client.Lists))
	}
	client.Lists[1].Resolve(models.Listing{
		Path:  "/data",
		Files: []string{"new.csv", "old.csv"},
	})
	cache.Tick()
	listing, _ := cache.Listing()
	if cache.Pending() || len(listing.Files) != 2 {
		t.Fatalf("got %+v", listing)
	}
}
