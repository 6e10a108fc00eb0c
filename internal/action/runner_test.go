// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package action

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/morganforge/draftsmith/internal/repo"
)

// =============================================================================
// FAKE REPOSITORY CLIENT
// =============================================================================

// fakeClient is an in-memory repo.Client for runner tests.
type fakeClient struct {
	mu         sync.Mutex
	fetchDocs  []repo.Document
	fetchErr   error
	patchDoc   repo.Document
	patchErr   error
	createDoc  repo.Document
	deleteErr  error
	fetchCalls int
	patchCalls int

	// blockFetch, when non-nil, makes Fetch wait until the channel closes.
	blockFetch chan struct{}
}

func (f *fakeClient) Fetch(ctx context.Context, query string, params map[string]any) ([]repo.Document, error) {
	f.mu.Lock()
	f.fetchCalls++
	block := f.blockFetch
	docs, err := f.fetchDocs, f.fetchErr
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	return docs, err
}

func (f *fakeClient) Create(ctx context.Context, doc repo.Document) (repo.Document, error) {
	if f.createDoc != nil {
		return f.createDoc, nil
	}
	created := repo.Document{"_id": "new1"}
	for k, v := range doc {
		created[k] = v
	}
	return created, nil
}

func (f *fakeClient) Patch(ctx context.Context, id string, fields map[string]any) (repo.Document, error) {
	f.mu.Lock()
	f.patchCalls++
	f.mu.Unlock()
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	if f.patchDoc != nil {
		return f.patchDoc, nil
	}
	doc := repo.Document{"_id": id}
	for k, v := range fields {
		doc[k] = v
	}
	return doc, nil
}

func (f *fakeClient) Delete(ctx context.Context, id string) error {
	return f.deleteErr
}

func (f *fakeClient) calls() (fetch, patch int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls, f.patchCalls
}

func newTestRunner(client repo.Client) *Runner {
	return NewRunner(client, zerolog.Nop())
}

// =============================================================================
// EXECUTION TESTS
// =============================================================================

func TestRunner_ExecuteQuery(t *testing.T) {
	client := &fakeClient{fetchDocs: []repo.Document{
		{"_id": "p1", "_type": "page"},
		{"_id": "p2", "_type": "page"},
	}}
	runner := newTestRunner(client)

	a := New(TypeQuery, Payload{Query: `*[_type == "page"]`})
	res, err := runner.Execute(context.Background(), a)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if !res.Success {
		t.Error("query result should be successful")
	}
	if len(res.Data) != 2 {
		t.Errorf("result data has %d docs, want 2", len(res.Data))
	}
	if a.Status() != StatusCompleted {
		t.Errorf("status = %s, want completed", a.Status())
	}

	// The same result is visible through the action itself: the runner
	// writes back onto the shared instance, not a copy.
	if got := a.Result(); got == nil || len(got.Data) != 2 {
		t.Error("result must be recorded on the action")
	}
}

func TestRunner_ExecuteFailure(t *testing.T) {
	client := &fakeClient{fetchErr: errors.New("repository unreachable")}
	runner := newTestRunner(client)

	a := New(TypeQuery, Payload{Query: "*"})
	runner.Execute(context.Background(), a)

	if a.Status() != StatusFailed {
		t.Fatalf("status = %s, want failed", a.Status())
	}
	if a.Result() != nil {
		t.Error("failed action must not carry a result")
	}
	if !strings.Contains(a.Err(), "could not run the query") {
		t.Errorf("Err() = %q, want user-facing description", a.Err())
	}

	// Failed actions are not retried; the instance is spent.
	if _, err := runner.Execute(context.Background(), a); err != ErrNotExecutable {
		t.Errorf("re-execute error = %v, want ErrNotExecutable", err)
	}
	if fetch, _ := client.calls(); fetch != 1 {
		t.Errorf("fetch calls = %d, want 1 (no implicit retry)", fetch)
	}
}

func TestRunner_ExecuteRefusesDestructive(t *testing.T) {
	client := &fakeClient{}
	runner := newTestRunner(client)

	a := New(TypeDelete, Payload{DocumentID: "p1"})
	_, err := runner.Execute(context.Background(), a)
	if err != ErrConfirmationRequired {
		t.Fatalf("Execute(delete) error = %v, want ErrConfirmationRequired", err)
	}

	// No transition happened: the action still waits for the user.
	if a.Status() != StatusPending {
		t.Errorf("status = %s, want pending", a.Status())
	}
}

func TestRunner_ConfirmRunsDestructive(t *testing.T) {
	client := &fakeClient{}
	runner := newTestRunner(client)

	a := New(TypeDelete, Payload{DocumentID: "drafts.p1"})
	res, err := runner.Confirm(context.Background(), a)
	if err != nil {
		t.Fatalf("Confirm() error: %v", err)
	}
	if !res.Success {
		t.Error("confirmed delete should succeed")
	}
	if res.DocumentID != "p1" {
		t.Errorf("result documentId = %q, want normalized p1", res.DocumentID)
	}
	if a.Status() != StatusCompleted {
		t.Errorf("status = %s, want completed", a.Status())
	}
}

func TestRunner_ExecuteRefusesExplain(t *testing.T) {
	runner := newTestRunner(&fakeClient{})

	a := New(TypeExplain, Payload{})
	if _, err := runner.Execute(context.Background(), a); err != ErrNotExecutable {
		t.Errorf("Execute(explain) error = %v, want ErrNotExecutable", err)
	}
	if _, err := runner.Confirm(context.Background(), a); err != ErrNotExecutable {
		t.Errorf("Confirm(explain) error = %v, want ErrNotExecutable", err)
	}
}

// =============================================================================
// AUTO-EXECUTION TESTS
// =============================================================================

func TestRunner_MaybeAutoExecuteOnce(t *testing.T) {
	client := &fakeClient{fetchDocs: []repo.Document{{"_id": "p1"}}}
	runner := newTestRunner(client)

	a := New(TypeQuery, Payload{Query: "*"})

	_, ran := runner.MaybeAutoExecute(context.Background(), a)
	if !ran {
		t.Fatal("first MaybeAutoExecute should run")
	}

	// Re-evaluation (UI re-render) must not trigger a second call.
	for i := 0; i < 5; i++ {
		if _, ran := runner.MaybeAutoExecute(context.Background(), a); ran {
			t.Fatal("repeated MaybeAutoExecute must not run again")
		}
	}
	if fetch, _ := client.calls(); fetch != 1 {
		t.Errorf("fetch calls = %d, want exactly 1", fetch)
	}
}

func TestRunner_MaybeAutoExecuteSkipsDestructive(t *testing.T) {
	runner := newTestRunner(&fakeClient{})

	a := New(TypeDelete, Payload{DocumentID: "p1"})
	if _, ran := runner.MaybeAutoExecute(context.Background(), a); ran {
		t.Error("destructive action must not auto-execute")
	}
	if a.Status() != StatusPending {
		t.Errorf("status = %s, want pending", a.Status())
	}
}

// =============================================================================
// CANCELLATION TESTS
// =============================================================================

func TestRunner_CancelInFlightDiscardsOutcome(t *testing.T) {
	block := make(chan struct{})
	client := &fakeClient{
		fetchDocs:  []repo.Document{{"_id": "p1"}},
		blockFetch: block,
	}
	runner := newTestRunner(client)

	a := New(TypeQuery, Payload{Query: "*"})

	done := make(chan Result, 1)
	go func() {
		res, _ := runner.Execute(context.Background(), a)
		done <- res
	}()

	// Wait until the action is actually executing, then cancel it while the
	// repository call is suspended.
	deadline := time.Now().Add(time.Second)
	for a.Status() != StatusExecuting {
		if time.Now().After(deadline) {
			t.Fatal("action never entered executing")
		}
		time.Sleep(time.Millisecond)
	}
	if err := runner.Cancel(a); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}

	close(block)
	<-done

	if a.Status() != StatusCancelled {
		t.Errorf("status = %s, want cancelled", a.Status())
	}
	if a.Result() != nil || a.Err() != "" {
		t.Error("late repository outcome must be discarded after cancellation")
	}
}

func TestRunner_CancelPending(t *testing.T) {
	runner := newTestRunner(&fakeClient{})

	a := New(TypeDelete, Payload{DocumentID: "p1"})
	if err := runner.Cancel(a); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}
	if a.Status() != StatusCancelled {
		t.Errorf("status = %s, want cancelled", a.Status())
	}

	// Cancelled actions refuse confirmation.
	if _, err := runner.Confirm(context.Background(), a); err != ErrNotExecutable {
		t.Errorf("Confirm(cancelled) error = %v, want ErrNotExecutable", err)
	}
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestRunner_History(t *testing.T) {
	runner := newTestRunner(&fakeClient{fetchDocs: []repo.Document{}})

	a := New(TypeQuery, Payload{Query: "*"})
	runner.Execute(context.Background(), a)

	history := runner.History()
	if len(history) != 1 {
		t.Fatalf("history has %d records, want 1", len(history))
	}
	if history[0].ActionID != a.ID || history[0].Status != StatusCompleted {
		t.Errorf("unexpected history record: %+v", history[0])
	}
}
