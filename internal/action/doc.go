// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package action contains the assistant action model, its lifecycle state
// machine, the confirmation gate, and the runner that executes actions
// against the content repository.
//
// # Lifecycle
//
// Actions move along a fixed set of edges and never re-enter pending:
//
//	pending -> executing -> completed | failed
//	pending -> cancelled
//	executing -> cancelled
//
// Exactly one execution attempt is permitted per action instance. A failed
// action is not retried; recovery happens at the conversation level by
// re-issuing the last user message.
//
// # Key Types
//
//   - Action: a typed proposal to operate on the content repository
//   - Gate: pure decision function (auto-execute, require-confirmation,
//     not-executable)
//   - Runner: drives actions through their lifecycle and records outcomes
//
// # Usage
//
// Auto-execute whatever the gate allows, at most once per action:
//
//	if res, ran := runner.MaybeAutoExecute(ctx, act); ran {
//	    // res recorded on act as well
//	}
//
// Destructive actions wait for the user:
//
//	if action.Gate(act) == action.RequireConfirmation {
//	    // show preview, then on click:
//	    res, err := runner.Confirm(ctx, act)
//	}
package action
