// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package action

import "testing"

// =============================================================================
// STATE MACHINE TESTS
// =============================================================================

func TestCanTransition_Edges(t *testing.T) {
	all := []Status{StatusPending, StatusExecuting, StatusCompleted, StatusFailed, StatusCancelled}

	allowed := map[[2]Status]bool{
		{StatusPending, StatusExecuting}:   true,
		{StatusPending, StatusCancelled}:   true,
		{StatusExecuting, StatusCompleted}: true,
		{StatusExecuting, StatusFailed}:    true,
		{StatusExecuting, StatusCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]Status{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	for status, want := range map[Status]bool{
		StatusPending:   false,
		StatusExecuting: false,
		StatusCompleted: true,
		StatusFailed:    true,
		StatusCancelled: true,
	} {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestAction_NewIsPending(t *testing.T) {
	a := New(TypeQuery, Payload{Query: "*"})
	if a.Status() != StatusPending {
		t.Errorf("new action status = %s, want pending", a.Status())
	}
	if a.ID == "" {
		t.Error("new action should have a generated ID")
	}
	if a.Result() != nil || a.Err() != "" {
		t.Error("new action must carry neither result nor error")
	}
}

func TestAction_CompleteRequiresExecuting(t *testing.T) {
	a := New(TypeQuery, Payload{Query: "*"})

	// Completing a pending action is not a legal edge; nothing is recorded.
	a.complete(Result{Success: true})
	if a.Status() != StatusPending {
		t.Errorf("status = %s, want pending", a.Status())
	}
	if a.Result() != nil {
		t.Error("result must not be set while the action is pending")
	}
}

func TestAction_ResultAndErrorExclusive(t *testing.T) {
	a := New(TypeQuery, Payload{Query: "*"})
	if err := a.begin(); err != nil {
		t.Fatalf("begin() error: %v", err)
	}

	a.fail("boom")
	if a.Status() != StatusFailed {
		t.Fatalf("status = %s, want failed", a.Status())
	}
	if a.Result() != nil {
		t.Error("failed action must not carry a result")
	}
	if a.Err() != "boom" {
		t.Errorf("Err() = %q, want boom", a.Err())
	}

	// A terminal action accepts no further outcome.
	a.complete(Result{Success: true})
	if a.Result() != nil {
		t.Error("complete after failed must be discarded")
	}
}

func TestAction_CancelDiscardsLateResult(t *testing.T) {
	a := New(TypeUpdate, Payload{DocumentID: "p1"})
	if err := a.begin(); err != nil {
		t.Fatalf("begin() error: %v", err)
	}
	if err := a.Cancel(); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}

	// The repository call resolves after cancellation; its outcome is
	// discarded.
	a.complete(Result{Success: true})
	a.fail("late failure")

	if a.Status() != StatusCancelled {
		t.Errorf("status = %s, want cancelled", a.Status())
	}
	if a.Result() != nil || a.Err() != "" {
		t.Error("cancelled action must carry neither result nor error")
	}
}

func TestAction_NoSecondExecution(t *testing.T) {
	a := New(TypeQuery, Payload{Query: "*"})
	if err := a.begin(); err != nil {
		t.Fatalf("first begin() error: %v", err)
	}
	a.complete(Result{Success: true})

	if err := a.begin(); err != ErrInvalidTransition {
		t.Errorf("second begin() error = %v, want ErrInvalidTransition", err)
	}
}

func TestAction_MarkAutoExecutedOnce(t *testing.T) {
	a := New(TypeQuery, Payload{Query: "*"})

	if !a.markAutoExecuted() {
		t.Error("first markAutoExecuted() should return true")
	}
	for i := 0; i < 5; i++ {
		if a.markAutoExecuted() {
			t.Fatal("repeated markAutoExecuted() must return false")
		}
	}
}

func TestType_Valid(t *testing.T) {
	for _, typ := range []Type{TypeCreate, TypeUpdate, TypeDelete, TypeQuery, TypeNavigate, TypeExplain} {
		if !typ.Valid() {
			t.Errorf("%s should be valid", typ)
		}
	}
	if Type("drop-table").Valid() {
		t.Error("unknown type should not be valid")
	}
}
