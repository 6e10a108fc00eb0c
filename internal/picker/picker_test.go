// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package picker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/morganforge/draftsmith/internal/repo"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// recordingSearch counts calls and records queries. Individual queries can
// be blocked via hold channels.
type recordingSearch struct {
	mu      sync.Mutex
	queries []string
	holds   map[string]chan struct{}
}

func newRecordingSearch() *recordingSearch {
	return &recordingSearch{holds: map[string]chan struct{}{}}
}

func (s *recordingSearch) hold(query string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.holds[query] = ch
	return ch
}

func (s *recordingSearch) fn(ctx context.Context, query string) ([]repo.Document, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	hold := s.holds[query]
	s.mu.Unlock()

	if hold != nil {
		<-hold
	}
	return []repo.Document{{"_id": query, "_type": "page"}}, nil
}

func (s *recordingSearch) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.queries))
	copy(out, s.queries)
	return out
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

// =============================================================================
// PICKER TESTS
// =============================================================================

func TestFirstQueryFiresImmediately(t *testing.T) {
	search := newRecordingSearch()
	p := New(search.fn, zerolog.Nop())
	p.SetDebounce(time.Hour) // debounce must not delay the first fetch

	p.Open()
	p.SetQuery(context.Background(), "")

	waitFor(t, func() bool { return len(search.calls()) == 1 })
}

func TestDebounceCoalescesInput(t *testing.T) {
	search := newRecordingSearch()

	var mu sync.Mutex
	var accepted [][]repo.Document
	p := New(search.fn, zerolog.Nop())
	p.OnResults = func(results []repo.Document) {
		mu.Lock()
		accepted = append(accepted, results)
		mu.Unlock()
	}
	p.SetDebounce(20 * time.Millisecond)

	p.Open()
	p.SetQuery(context.Background(), "")
	waitFor(t, func() bool { return len(search.calls()) == 1 })

	// Rapid typing: only the final input survives the debounce window.
	p.SetQuery(context.Background(), "a")
	p.SetQuery(context.Background(), "ab")
	p.SetQuery(context.Background(), "abo")
	p.SetQuery(context.Background(), "abou")
	p.SetQuery(context.Background(), "about")

	waitFor(t, func() bool { return len(search.calls()) == 2 })
	time.Sleep(50 * time.Millisecond)

	calls := search.calls()
	if len(calls) != 2 {
		t.Fatalf("search ran %d times, want 2 (open + debounced): %v", len(calls), calls)
	}
	if calls[1] != "about" {
		t.Errorf("debounced query = %q, want the final input", calls[1])
	}

	waitFor(t, func() bool {
		results := p.Results()
		return len(results) == 1 && results[0].ID() == "about"
	})
}

func TestStaleResponseDiscarded(t *testing.T) {
	search := newRecordingSearch()
	slow := search.hold("slow")

	p := New(search.fn, zerolog.Nop())
	p.SetDebounce(time.Millisecond)

	p.Open()
	p.SetQuery(context.Background(), "slow")
	waitFor(t, func() bool { return len(search.calls()) == 1 })

	p.SetQuery(context.Background(), "fast")
	waitFor(t, func() bool { return len(search.calls()) == 2 })
	waitFor(t, func() bool {
		results := p.Results()
		return len(results) == 1 && results[0].ID() == "fast"
	})

	// The older query resolves after the newer one; its response must not
	// overwrite the newer results.
	close(slow)
	time.Sleep(20 * time.Millisecond)

	results := p.Results()
	if len(results) != 1 || results[0].ID() != "fast" {
		t.Errorf("results = %+v, want the fast query's results kept", results)
	}
}

func TestCloseDiscardsInFlightResponse(t *testing.T) {
	search := newRecordingSearch()
	hold := search.hold("pending")

	p := New(search.fn, zerolog.Nop())
	p.Open()
	p.SetQuery(context.Background(), "pending")
	waitFor(t, func() bool { return len(search.calls()) == 1 })

	p.Close()
	close(hold)
	time.Sleep(20 * time.Millisecond)

	if results := p.Results(); len(results) != 0 {
		t.Errorf("results = %+v, want none after Close", results)
	}
}

func TestSetQueryIgnoredWhenClosed(t *testing.T) {
	search := newRecordingSearch()
	p := New(search.fn, zerolog.Nop())

	p.SetQuery(context.Background(), "never")
	time.Sleep(20 * time.Millisecond)

	if calls := search.calls(); len(calls) != 0 {
		t.Errorf("search ran %d times on a closed picker, want 0", len(calls))
	}
}

func TestReopenFiresImmediatelyAgain(t *testing.T) {
	search := newRecordingSearch()
	p := New(search.fn, zerolog.Nop())
	p.SetDebounce(time.Hour)

	p.Open()
	p.SetQuery(context.Background(), "first")
	waitFor(t, func() bool { return len(search.calls()) == 1 })

	p.Close()
	p.Open()
	p.SetQuery(context.Background(), "second")
	waitFor(t, func() bool { return len(search.calls()) == 2 })

	if calls := search.calls(); calls[1] != "second" {
		t.Errorf("second open's immediate query = %q, want second", calls[1])
	}
}
