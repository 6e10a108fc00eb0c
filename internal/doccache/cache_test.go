// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package doccache

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/morganforge/draftsmith/internal/repo"
)

// countingClient counts Fetch calls and serves a fixed document.
type countingClient struct {
	mu    sync.Mutex
	calls int
	doc   repo.Document
	err   error
}

func (c *countingClient) Fetch(ctx context.Context, query string, params map[string]any) ([]repo.Document, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if c.doc == nil {
		return []repo.Document{}, nil
	}
	return []repo.Document{c.doc}, nil
}

func (c *countingClient) Create(ctx context.Context, doc repo.Document) (repo.Document, error) {
	return doc, nil
}

func (c *countingClient) Patch(ctx context.Context, id string, fields map[string]any) (repo.Document, error) {
	return repo.Document{"_id": id}, nil
}

func (c *countingClient) Delete(ctx context.Context, id string) error {
	return nil
}

func (c *countingClient) fetchCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func openTestCache(t *testing.T, client repo.Client) *Cache {
	t.Helper()
	cache, err := Open(filepath.Join(t.TempDir(), "doccache.db"), client, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

// =============================================================================
// RESOLUTION TESTS
// =============================================================================

func TestCache_ResolveFetchesOnce(t *testing.T) {
	client := &countingClient{doc: repo.Document{
		"_id": "drafts.p1", "_type": "page", "slug": map[string]any{"current": "about"}, "title": "About",
	}}
	cache := openTestCache(t, client)

	entry, err := cache.Resolve(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if entry.ID != "p1" {
		t.Errorf("entry ID = %q, want normalized p1", entry.ID)
	}
	if entry.Slug != "about" || entry.Type != "page" || entry.Name != "About" {
		t.Errorf("unexpected entry: %+v", entry)
	}

	// Second resolution is served from cache.
	if _, err := cache.Resolve(context.Background(), "p1"); err != nil {
		t.Fatalf("second Resolve() error: %v", err)
	}
	if client.fetchCalls() != 1 {
		t.Errorf("fetch calls = %d, want 1", client.fetchCalls())
	}
}

func TestCache_DraftAndPublishedShareEntry(t *testing.T) {
	client := &countingClient{doc: repo.Document{"_id": "p1", "_type": "page"}}
	cache := openTestCache(t, client)

	if _, err := cache.Resolve(context.Background(), "drafts.p1"); err != nil {
		t.Fatalf("Resolve(drafts.p1) error: %v", err)
	}
	if _, err := cache.Resolve(context.Background(), "p1"); err != nil {
		t.Fatalf("Resolve(p1) error: %v", err)
	}
	if client.fetchCalls() != 1 {
		t.Errorf("fetch calls = %d, want 1 (variants share one entry)", client.fetchCalls())
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	client := &countingClient{doc: repo.Document{"_id": "p1", "_type": "page"}}
	cache := openTestCache(t, client)
	cache.SetTTL(time.Nanosecond)

	cache.Resolve(context.Background(), "p1")
	time.Sleep(time.Millisecond)
	cache.Resolve(context.Background(), "p1")

	if client.fetchCalls() != 2 {
		t.Errorf("fetch calls = %d, want 2 after TTL expiry", client.fetchCalls())
	}
}

func TestCache_NotFound(t *testing.T) {
	cache := openTestCache(t, &countingClient{})

	_, err := cache.Resolve(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(missing) error = %v, want ErrNotFound", err)
	}
}

func TestCache_FetchErrorNotCached(t *testing.T) {
	client := &countingClient{err: errors.New("repository unreachable")}
	cache := openTestCache(t, client)

	if _, err := cache.Resolve(context.Background(), "p1"); err == nil {
		t.Fatal("Resolve() should propagate the fetch error")
	}

	// A failure must not poison the cache.
	client.mu.Lock()
	client.err = nil
	client.doc = repo.Document{"_id": "p1", "_type": "page"}
	client.mu.Unlock()

	entry, err := cache.Resolve(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Resolve() after recovery error: %v", err)
	}
	if entry.Type != "page" {
		t.Errorf("entry Type = %q, want page", entry.Type)
	}
}

func TestCache_Invalidate(t *testing.T) {
	client := &countingClient{doc: repo.Document{"_id": "p1", "_type": "page"}}
	cache := openTestCache(t, client)

	cache.Resolve(context.Background(), "p1")
	if err := cache.Invalidate("drafts.p1"); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}
	cache.Resolve(context.Background(), "p1")

	if client.fetchCalls() != 2 {
		t.Errorf("fetch calls = %d, want 2 after invalidation", client.fetchCalls())
	}
}
