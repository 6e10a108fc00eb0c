// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package action

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/morganforge/draftsmith/internal/repo"
	"github.com/morganforge/draftsmith/internal/telemetry"
)

// =============================================================================
// EXECUTION RECORD
// =============================================================================

// ExecutionRecord tracks one execution attempt for audit purposes.
type ExecutionRecord struct {
	// ActionID identifies the executed action
	ActionID string

	// Type is the action type
	Type Type

	// Status is the terminal status the attempt reached
	Status Status

	// Timestamp is when the execution started
	Timestamp time.Time

	// Duration is how long the execution took
	Duration time.Duration
}

// =============================================================================
// RUNNER
// =============================================================================

// Errors returned by the runner before any lifecycle transition happens.
var (
	// ErrNotExecutable - the gate ruled the action out (explain, or already
	// outside pending).
	ErrNotExecutable = errors.New("action is not executable")

	// ErrConfirmationRequired - the action is destructive and has not been
	// confirmed by the user.
	ErrConfirmationRequired = errors.New("action requires confirmation")
)

// Runner drives actions through their lifecycle, invoking the repository
// client and recording results and errors onto the action itself.
//
// The Runner is safe for concurrent use.
type Runner struct {
	client repo.Client
	log    zerolog.Logger

	mu      sync.Mutex
	history []ExecutionRecord
}

// maxHistorySize bounds the in-memory execution history.
const maxHistorySize = 1000

// NewRunner creates a runner backed by the given repository client.
func NewRunner(client repo.Client, log zerolog.Logger) *Runner {
	return &Runner{
		client:  client,
		log:     log.With().Str("component", "runner").Logger(),
		history: make([]ExecutionRecord, 0),
	}
}

// History returns a copy of the execution history.
func (r *Runner) History() []ExecutionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]ExecutionRecord, len(r.history))
	copy(result, r.history)
	return result
}

// =============================================================================
// EXECUTION ENTRY POINTS
// =============================================================================

// Execute runs an action that the gate allows to run without confirmation.
// For destructive actions it returns ErrConfirmationRequired and leaves the
// action in pending; use Confirm after the user has approved.
func (r *Runner) Execute(ctx context.Context, a *Action) (Result, error) {
	switch Gate(a) {
	case NotExecutable:
		telemetry.GateDecisions.WithLabelValues("not-executable").Inc()
		return Result{}, ErrNotExecutable
	case RequireConfirmation:
		telemetry.GateDecisions.WithLabelValues("require-confirmation").Inc()
		return Result{}, ErrConfirmationRequired
	}
	telemetry.GateDecisions.WithLabelValues("auto-execute").Inc()
	return r.run(ctx, a), nil
}

// Confirm runs an action after explicit user confirmation. It accepts
// actions the gate holds for confirmation as well as auto-executable ones;
// informational and already-settled actions still refuse.
func (r *Runner) Confirm(ctx context.Context, a *Action) (Result, error) {
	if Gate(a) == NotExecutable {
		return Result{}, ErrNotExecutable
	}
	return r.run(ctx, a), nil
}

// MaybeAutoExecute runs the action if and only if the gate allows automatic
// execution and the action has not been auto-executed before. The marker is
// set synchronously before the repository call is issued, so a re-evaluating
// caller cannot trigger a duplicate call. Returns false when nothing ran.
func (r *Runner) MaybeAutoExecute(ctx context.Context, a *Action) (Result, bool) {
	if Gate(a) != AutoExecute {
		return Result{}, false
	}
	if !a.markAutoExecuted() {
		return Result{}, false
	}
	return r.run(ctx, a), true
}

// Cancel cancels a pending or in-flight action. The outcome of a repository
// call that is already underway is discarded when it resolves.
func (r *Runner) Cancel(a *Action) error {
	if err := a.Cancel(); err != nil {
		return err
	}
	r.log.Info().Str("action", a.ID).Str("type", a.Type.String()).Msg("action cancelled")
	return nil
}

// =============================================================================
// EXECUTION
// =============================================================================

// run performs the single permitted execution attempt for an action.
func (r *Runner) run(ctx context.Context, a *Action) Result {
	start := time.Now()

	if err := a.begin(); err != nil {
		// Lost the race against a cancellation; nothing ran.
		return Result{Success: false, Message: "action is no longer pending"}
	}

	res, err := r.dispatch(ctx, a)
	if err != nil {
		a.fail(userFacingError(a, err))
		r.log.Warn().Str("action", a.ID).Str("type", a.Type.String()).Err(err).Msg("action failed")
	} else {
		a.complete(res)
	}

	// The action may have been cancelled while the repository call was in
	// flight; report what the action actually settled on.
	final := a.Status()
	r.record(a, final, start)
	telemetry.ActionExecutions.WithLabelValues(a.Type.String(), final.String()).Inc()

	if result := a.Result(); result != nil {
		return *result
	}
	return Result{Success: false, Message: statusMessage(final, a)}
}

// dispatch invokes the repository call for the action's type.
func (r *Runner) dispatch(ctx context.Context, a *Action) (Result, error) {
	p := a.Payload

	switch a.Type {
	case TypeQuery:
		docs, err := r.client.Fetch(ctx, p.Query, nil)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Success: true,
			Message: "query returned " + countNoun(len(docs), "document"),
			Data:    docs,
		}, nil

	case TypeCreate:
		doc := repo.Document{}
		if p.DocumentType != "" {
			doc["_type"] = p.DocumentType
		}
		if p.DocumentID != "" {
			doc["_id"] = p.DocumentID
		}
		for k, v := range p.Fields {
			doc[k] = v
		}
		created, err := r.client.Create(ctx, doc)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Success:    true,
			Message:    "created " + created.Type() + " document",
			DocumentID: repo.NormalizeID(created.ID()),
			Data:       []repo.Document{created},
		}, nil

	case TypeUpdate:
		updated, err := r.client.Patch(ctx, p.DocumentID, p.Fields)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Success:    true,
			Message:    "updated document",
			DocumentID: repo.NormalizeID(updated.ID()),
			Data:       []repo.Document{updated},
		}, nil

	case TypeDelete:
		if err := r.client.Delete(ctx, p.DocumentID); err != nil {
			return Result{}, err
		}
		return Result{
			Success:    true,
			Message:    "deleted document",
			DocumentID: repo.NormalizeID(p.DocumentID),
		}, nil

	case TypeNavigate:
		// Navigation has no repository side effect; the host performs the
		// actual route change from the recorded result.
		return Result{
			Success:    true,
			Message:    "ready to navigate",
			DocumentID: repo.NormalizeID(p.DocumentID),
		}, nil
	}

	return Result{}, errors.New("unsupported action type: " + a.Type.String())
}

// record appends an execution record, bounding history size.
func (r *Runner) record(a *Action, status Status, start time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.history) >= maxHistorySize {
		r.history = r.history[len(r.history)-maxHistorySize+1:]
	}

	r.history = append(r.history, ExecutionRecord{
		ActionID:  a.ID,
		Type:      a.Type,
		Status:    status,
		Timestamp: start,
		Duration:  time.Since(start),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// userFacingError converts a repository error into the human-readable
// description stored on a failed action.
func userFacingError(a *Action, err error) string {
	verb := "run"
	switch a.Type {
	case TypeCreate:
		verb = "create the document"
	case TypeUpdate:
		verb = "update the document"
	case TypeDelete:
		verb = "delete the document"
	case TypeQuery:
		verb = "run the query"
	}
	return "could not " + verb + ": " + err.Error()
}

func statusMessage(s Status, a *Action) string {
	switch s {
	case StatusCancelled:
		return "action cancelled"
	case StatusFailed:
		return a.Err()
	}
	return ""
}

// countNoun formats "1 document" / "3 documents".
func countNoun(n int, noun string) string {
	s := strconv.Itoa(n) + " " + noun
	if n != 1 {
		s += "s"
	}
	return s
}
