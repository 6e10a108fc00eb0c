// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package picker implements debounced interactive search for document and
// skill pickers.
package picker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/morganforge/draftsmith/internal/repo"
)

// DefaultDebounce is the fixed delay between a keystroke and the search it
// triggers.
const DefaultDebounce = 300 * time.Millisecond

// SearchFunc runs one search query.
type SearchFunc func(ctx context.Context, query string) ([]repo.Document, error)

// =============================================================================
// PICKER
// =============================================================================

// Picker issues searches for interactive input. Repeated input within the
// debounce window coalesces into one query; the first fetch after the
// picker opens fires immediately. Responses are tagged with a generation
// counter and anything but the latest generation is discarded, so a slow
// early response can never overwrite the results of a later query.
type Picker struct {
	search   SearchFunc
	debounce time.Duration
	log      zerolog.Logger

	// OnResults is invoked with the accepted results of the latest query.
	// Optional.
	OnResults func(results []repo.Document)

	// OnError is invoked when the latest query fails. Optional.
	OnError func(err error)

	mu         sync.Mutex
	open       bool
	fetched    bool
	generation int
	timer      *time.Timer
	results    []repo.Document
}

// New creates a picker with the default debounce interval.
func New(search SearchFunc, log zerolog.Logger) *Picker {
	return &Picker{
		search:   search,
		debounce: DefaultDebounce,
		log:      log.With().Str("component", "picker").Logger(),
	}
}

// SetDebounce overrides the debounce interval.
func (p *Picker) SetDebounce(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.debounce = d
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Open readies the picker. The next SetQuery fires without debouncing.
func (p *Picker) Open() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.open = true
	p.fetched = false
	p.results = nil
}

// Close invalidates outstanding work. In-flight responses are discarded
// when they resolve.
func (p *Picker) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.open = false
	p.generation++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// Results returns the accepted results of the latest completed query.
func (p *Picker) Results() []repo.Document {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]repo.Document, len(p.results))
	copy(out, p.results)
	return out
}

// =============================================================================
// QUERYING
// =============================================================================

// SetQuery schedules a search for the given input. The first call after
// Open issues immediately; later calls wait out the debounce interval, and
// a newer call cancels a scheduled older one.
func (p *Picker) SetQuery(ctx context.Context, query string) {
	p.mu.Lock()

	if !p.open {
		p.mu.Unlock()
		return
	}
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}

	if !p.fetched {
		p.fetched = true
		p.issueLocked(ctx, query)
		p.mu.Unlock()
		return
	}

	delay := p.debounce
	p.timer = time.AfterFunc(delay, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if !p.open {
			return
		}
		p.issueLocked(ctx, query)
	})
	p.mu.Unlock()
}

// issueLocked starts the search for one query, tagged with a fresh
// generation. Caller holds the lock.
func (p *Picker) issueLocked(ctx context.Context, query string) {
	p.generation++
	gen := p.generation

	go func() {
		results, err := p.search(ctx, query)

		p.mu.Lock()
		if gen != p.generation {
			// A newer query was issued while this one was in flight.
			p.mu.Unlock()
			p.log.Debug().Str("query", query).Msg("discarding stale search response")
			return
		}
		onResults := p.OnResults
		onError := p.OnError
		if err == nil {
			p.results = results
		}
		p.mu.Unlock()

		if err != nil {
			p.log.Warn().Err(err).Str("query", query).Msg("picker search failed")
			if onError != nil {
				onError(err)
			}
			return
		}
		if onResults != nil {
			onResults(results)
		}
	}()
}
