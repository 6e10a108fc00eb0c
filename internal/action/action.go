// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package action contains the assistant action model, its lifecycle state
// machine, the confirmation gate, and the runner that executes actions
// against the content repository.
package action

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/morganforge/draftsmith/internal/repo"
)

// =============================================================================
// ACTION TYPE
// =============================================================================

// Type classifies what an action proposes to do.
type Type string

const (
	TypeCreate   Type = "create"
	TypeUpdate   Type = "update"
	TypeDelete   Type = "delete"
	TypeQuery    Type = "query"
	TypeNavigate Type = "navigate"
	TypeExplain  Type = "explain"
)

// String returns the string representation of the type.
func (t Type) String() string {
	return string(t)
}

// Valid reports whether the type is one of the known action types.
func (t Type) Valid() bool {
	switch t {
	case TypeCreate, TypeUpdate, TypeDelete, TypeQuery, TypeNavigate, TypeExplain:
		return true
	}
	return false
}

// =============================================================================
// STATUS TYPE
// =============================================================================

// Status is the lifecycle state of an action.
type Status string

const (
	StatusPending   Status = "pending"
	StatusExecuting Status = "executing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Terminal reports whether the status is a terminal lifecycle state.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// validTransitions are the only permitted lifecycle edges. No transition
// re-enters pending.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusExecuting, StatusCancelled},
	StatusExecuting: {StatusCompleted, StatusFailed, StatusCancelled},
}

// CanTransition reports whether from -> to is a permitted lifecycle edge.
func CanTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// =============================================================================
// PAYLOAD AND RESULT
// =============================================================================

// Payload holds the operation parameters of an action.
type Payload struct {
	// DocumentID and DocumentType identify the target for document-targeted
	// actions (update, delete, navigate, and create-with-known-ID).
	DocumentID   string `json:"documentId,omitempty"`
	DocumentType string `json:"documentType,omitempty"`

	// Query is the query expression for query actions.
	Query string `json:"query,omitempty"`

	// Fields is the field map written by create and update actions.
	Fields map[string]any `json:"fields,omitempty"`

	// Unset lists fields removed by an update action.
	Unset []string `json:"unset,omitempty"`
}

// Result records the outcome of an execution attempt.
type Result struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	DocumentID string          `json:"documentId,omitempty"`
	Data       []repo.Document `json:"data,omitempty"`
}

// =============================================================================
// ACTION
// =============================================================================

// ErrInvalidTransition is returned when a lifecycle edge is not permitted.
var ErrInvalidTransition = errors.New("invalid action transition")

// Action is a proposed operation on the content repository. Its lifecycle is
// independent of the message that proposed it.
//
// The mutable lifecycle state is guarded: result and error are mutually
// exclusive and only ever set on entry to a terminal state.
type Action struct {
	ID      string  `json:"id"`
	Type    Type    `json:"type"`
	Payload Payload `json:"payload"`

	mu           sync.Mutex
	status       Status
	result       *Result
	errMsg       string
	autoExecuted bool
}

// New creates a pending action with a generated ID.
func New(t Type, payload Payload) *Action {
	return &Action{
		ID:      uuid.NewString(),
		Type:    t,
		Payload: payload,
		status:  StatusPending,
	}
}

// Status returns the current lifecycle state.
func (a *Action) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status == "" {
		return StatusPending
	}
	return a.status
}

// Result returns the recorded result, or nil if no execution attempt has
// completed.
func (a *Action) Result() *Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Err returns the recorded failure description, or "" unless the action
// failed.
func (a *Action) Err() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.errMsg
}

// Cancel moves a pending or executing action to cancelled. Cancelling an
// in-flight action makes its eventual repository outcome a no-op: whatever
// the call resolves to is discarded.
func (a *Action) Cancel() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transitionLocked(StatusCancelled)
}

// begin moves the action from pending to executing. Exactly one execution
// attempt is permitted per action instance.
func (a *Action) begin() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transitionLocked(StatusExecuting)
}

// complete records a successful result. Discarded silently if the action is
// no longer executing (late result after cancellation).
func (a *Action) complete(res Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.transitionLocked(StatusCompleted) != nil {
		return
	}
	a.result = &res
}

// fail records a failure. Discarded silently if the action is no longer
// executing (late failure after cancellation).
func (a *Action) fail(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.transitionLocked(StatusFailed) != nil {
		return
	}
	a.errMsg = msg
}

// markAutoExecuted sets the at-most-once auto-execution marker. Returns true
// only for the first caller; repeated evaluation of the same action is a
// no-op.
func (a *Action) markAutoExecuted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.autoExecuted {
		return false
	}
	a.autoExecuted = true
	return true
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// State is the serializable lifecycle snapshot of an action.
type State struct {
	Status Status  `json:"status"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// State captures the action's lifecycle for persistence.
func (a *Action) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	status := a.status
	if status == "" {
		status = StatusPending
	}
	return State{Status: status, Result: a.result, Error: a.errMsg}
}

// Restore rebuilds an action from persisted form. Restored non-terminal
// actions come back as pending; an execution attempt interrupted by shutdown
// is not resumed.
func Restore(id string, t Type, payload Payload, st State) *Action {
	status := st.Status
	if !status.Terminal() {
		status = StatusPending
	}
	a := &Action{
		ID:      id,
		Type:    t,
		Payload: payload,
		status:  status,
	}
	if status == StatusCompleted {
		a.result = st.Result
	}
	if status == StatusFailed {
		a.errMsg = st.Error
	}
	return a
}

func (a *Action) transitionLocked(to Status) error {
	from := a.status
	if from == "" {
		from = StatusPending
	}
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	a.status = to
	return nil
}
