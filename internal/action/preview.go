// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package action

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/morganforge/draftsmith/internal/repo"
)

// =============================================================================
// DESTRUCTIVE-CHANGE PREVIEW
// =============================================================================

// PreviewUpdate renders a line diff between a document's current fields and
// the state an update action would leave them in. The confirmation surface
// shows this to the user before a destructive update is approved.
//
// Only the fields the action touches (written or unset) appear in the diff.
func (r *Runner) PreviewUpdate(ctx context.Context, a *Action) (string, error) {
	if a.Type != TypeUpdate {
		return "", ErrNotExecutable
	}

	docs, err := r.client.Fetch(ctx, `*[_id == $id || _id == $draftId][0]`, map[string]any{
		"id":      repo.NormalizeID(a.Payload.DocumentID),
		"draftId": repo.DraftID(a.Payload.DocumentID),
	})
	if err != nil {
		return "", err
	}

	var current repo.Document
	if len(docs) > 0 {
		current = docs[0]
	}

	before := renderFields(current, a.Payload)
	after := renderFields(applyPayload(current, a.Payload), a.Payload)
	return lineDiff(before, after), nil
}

// applyPayload returns a copy of the document with the action's writes and
// unsets applied.
func applyPayload(current repo.Document, p Payload) repo.Document {
	next := repo.Document{}
	for k, v := range current {
		next[k] = v
	}
	for k, v := range p.Fields {
		next[k] = v
	}
	for _, k := range p.Unset {
		delete(next, k)
	}
	return next
}

// renderFields renders the touched fields as stable "key: value" lines.
func renderFields(doc repo.Document, p Payload) string {
	touched := make(map[string]bool, len(p.Fields)+len(p.Unset))
	for k := range p.Fields {
		touched[k] = true
	}
	for _, k := range p.Unset {
		touched[k] = true
	}

	keys := make([]string, 0, len(touched))
	for k := range touched {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		v, ok := doc[k]
		if !ok {
			continue
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			continue
		}
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.Write(encoded)
		sb.WriteString("\n")
	}
	return sb.String()
}

// lineDiff renders a +/- unified-style diff between two field renderings.
func lineDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	beforeChars, afterChars, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(beforeChars, afterChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var sb strings.Builder
	for _, diff := range diffs {
		prefix := "  "
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range splitLines(diff.Text) {
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func splitLines(chunk string) []string {
	lines := strings.Split(chunk, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
