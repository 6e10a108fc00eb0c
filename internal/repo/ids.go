// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package repo provides the HTTP client for the content repository API.
package repo

import "strings"

// DraftPrefix marks the draft variant of a document ID.
// A document may exist as both "drafts.<id>" and "<id>"; both refer to the
// same logical document.
const DraftPrefix = "drafts."

// NormalizeID strips the draft prefix from a document ID, collapsing the
// draft and published variants to one canonical ID.
func NormalizeID(id string) string {
	return strings.TrimPrefix(id, DraftPrefix)
}

// IsDraftID reports whether an ID refers to the draft variant.
func IsDraftID(id string) bool {
	return strings.HasPrefix(id, DraftPrefix)
}

// DraftID returns the draft variant of a document ID.
func DraftID(id string) string {
	if IsDraftID(id) {
		return id
	}
	return DraftPrefix + id
}
