// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package doccache caches enriched document metadata in SQLite.
package doccache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/morganforge/draftsmith/internal/repo"
	"github.com/morganforge/draftsmith/internal/telemetry"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound - the repository has no document under this ID (neither
	// draft nor published variant).
	ErrNotFound = errors.New("document not found")
)

// =============================================================================
// ENTRY
// =============================================================================

// Entry is the cached metadata for one document, keyed by the normalized
// (draft-prefix-stripped) ID.
type Entry struct {
	ID        string
	Type      string
	Slug      string
	Name      string
	FetchedAt time.Time
}

// =============================================================================
// CACHE
// =============================================================================

// DefaultTTL is how long a cached entry is served without re-fetching.
const DefaultTTL = 5 * time.Minute

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL DEFAULT '',
	slug       TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL DEFAULT '',
	fetched_at INTEGER NOT NULL
);
`

// Cache is a read-through cache of document metadata in front of the
// repository client. Concurrent lookups for the same ID collapse into one
// repository fetch.
type Cache struct {
	db     *sql.DB
	client repo.Client
	ttl    time.Duration
	group  singleflight.Group
	log    zerolog.Logger
}

// Open creates or opens the cache database at path.
func Open(path string, client repo.Client, log zerolog.Logger) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Cache{
		db:     db,
		client: client,
		ttl:    DefaultTTL,
		log:    log.With().Str("component", "doccache").Logger(),
	}, nil
}

// SetTTL overrides the freshness window.
func (c *Cache) SetTTL(ttl time.Duration) {
	c.ttl = ttl
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// =============================================================================
// RESOLUTION
// =============================================================================

// Resolve returns the metadata for a document ID, serving from cache when
// fresh and fetching from the repository otherwise. The ID may be the draft
// or the published variant; the entry is keyed by the normalized ID.
func (c *Cache) Resolve(ctx context.Context, id string) (Entry, error) {
	id = repo.NormalizeID(id)

	if entry, ok := c.lookup(id); ok {
		telemetry.EnrichmentFetches.WithLabelValues("hit").Inc()
		return entry, nil
	}

	v, err, _ := c.group.Do(id, func() (any, error) {
		return c.fetch(ctx, id)
	})
	if err != nil {
		telemetry.EnrichmentFetches.WithLabelValues("failed").Inc()
		return Entry{}, err
	}

	telemetry.EnrichmentFetches.WithLabelValues("fetched").Inc()
	return v.(Entry), nil
}

// lookup reads a cached entry, reporting whether it exists and is fresh.
func (c *Cache) lookup(id string) (Entry, bool) {
	var entry Entry
	var fetchedAt int64

	err := c.db.QueryRow(
		"SELECT id, type, slug, name, fetched_at FROM documents WHERE id = ?", id,
	).Scan(&entry.ID, &entry.Type, &entry.Slug, &entry.Name, &fetchedAt)
	if err != nil {
		return Entry{}, false
	}

	entry.FetchedAt = time.Unix(fetchedAt, 0)
	if time.Since(entry.FetchedAt) > c.ttl {
		return Entry{}, false
	}
	return entry, true
}

// fetch loads metadata from the repository, preferring the draft variant
// (it carries the newest slug) and falling back to the published one.
func (c *Cache) fetch(ctx context.Context, id string) (Entry, error) {
	docs, err := c.client.Fetch(ctx,
		`*[_id == $draftId || _id == $id] | order(_id) [0]`,
		map[string]any{"id": id, "draftId": repo.DraftID(id)},
	)
	if err != nil {
		return Entry{}, err
	}
	if len(docs) == 0 {
		return Entry{}, ErrNotFound
	}

	doc := docs[0]
	entry := Entry{
		ID:        id,
		Type:      doc.Type(),
		Slug:      doc.Slug(),
		Name:      doc.Name(),
		FetchedAt: time.Now(),
	}

	if err := c.store(entry); err != nil {
		// Cache write failures are not fatal; the caller still gets the
		// fetched metadata.
		c.log.Warn().Err(err).Str("id", id).Msg("failed to cache document metadata")
	}

	return entry, nil
}

// store upserts an entry.
func (c *Cache) store(entry Entry) error {
	_, err := c.db.Exec(`
		INSERT INTO documents (id, type, slug, name, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			slug = excluded.slug,
			name = excluded.name,
			fetched_at = excluded.fetched_at`,
		entry.ID, entry.Type, entry.Slug, entry.Name, entry.FetchedAt.Unix())
	return err
}

// Invalidate drops a cached entry, forcing the next Resolve to re-fetch.
func (c *Cache) Invalidate(id string) error {
	_, err := c.db.Exec("DELETE FROM documents WHERE id = ?", repo.NormalizeID(id))
	return err
}
