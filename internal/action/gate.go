// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package action

// =============================================================================
// GATE DECISION
// =============================================================================

// Decision is the confirmation gate's verdict on a proposed action.
type Decision int

const (
	// NotExecutable - informational actions and actions already outside
	// pending. Nothing to run.
	NotExecutable Decision = iota

	// AutoExecute - safe to run immediately without asking. Queries and
	// additive edits keep the conversation fluid.
	AutoExecute

	// RequireConfirmation - destructive actions need an explicit user click
	// before anything touches the repository.
	RequireConfirmation
)

// String returns the string representation of a decision.
func (d Decision) String() string {
	switch d {
	case NotExecutable:
		return "not-executable"
	case AutoExecute:
		return "auto-execute"
	case RequireConfirmation:
		return "require-confirmation"
	default:
		return "unknown"
	}
}

// =============================================================================
// GATE
// =============================================================================

// Gate decides whether an action runs automatically, requires human
// confirmation, or is not executable at all. Pure function of the action's
// type, payload, and current status.
func Gate(a *Action) Decision {
	if a.Type == TypeExplain {
		return NotExecutable
	}
	if a.Status() != StatusPending {
		return NotExecutable
	}
	if Destructive(a) {
		return RequireConfirmation
	}
	return AutoExecute
}

// Destructive reports whether an action's effect is irreversible or
// data-losing: any delete, and any create/update whose payload would
// unpublish, overwrite a slug, or remove content.
func Destructive(a *Action) bool {
	switch a.Type {
	case TypeDelete:
		return true
	case TypeCreate, TypeUpdate:
		return destructivePayload(a.Payload)
	}
	return false
}

// destructivePayload applies the fixed taxonomy of destructive field
// operations.
func destructivePayload(p Payload) bool {
	// Removing any field is destructive.
	if len(p.Unset) > 0 {
		return true
	}

	for field, value := range p.Fields {
		switch field {
		case "slug":
			// Slug overwrites break published URLs.
			return true
		case "publishedAt", "published":
			if isUnpublishValue(value) {
				return true
			}
		}
		// Writing nil unsets the field on the repository side.
		if value == nil {
			return true
		}
	}
	return false
}

// isUnpublishValue reports whether writing this value to a publish field
// takes the document out of publication.
func isUnpublishValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return v == ""
	}
	return false
}
