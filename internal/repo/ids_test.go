// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package repo

import "testing"

// =============================================================================
// ID NORMALIZATION TESTS
// =============================================================================

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{name: "draft id", id: "drafts.abc123", want: "abc123"},
		{name: "published id", id: "abc123", want: "abc123"},
		{name: "empty id", id: "", want: ""},
		{name: "prefix only", id: "drafts.", want: ""},
		{name: "prefix not at start", id: "abc.drafts.def", want: "abc.drafts.def"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeID(tc.id); got != tc.want {
				t.Errorf("NormalizeID(%q) = %q, want %q", tc.id, got, tc.want)
			}
		})
	}
}

func TestIsDraftID(t *testing.T) {
	if !IsDraftID("drafts.abc") {
		t.Error("IsDraftID(drafts.abc) should be true")
	}
	if IsDraftID("abc") {
		t.Error("IsDraftID(abc) should be false")
	}
}

func TestDraftID(t *testing.T) {
	if got := DraftID("abc"); got != "drafts.abc" {
		t.Errorf("DraftID(abc) = %q, want drafts.abc", got)
	}

	// Already-draft IDs are not double-prefixed
	if got := DraftID("drafts.abc"); got != "drafts.abc" {
		t.Errorf("DraftID(drafts.abc) = %q, want drafts.abc", got)
	}
}

// =============================================================================
// DOCUMENT ACCESSOR TESTS
// =============================================================================

func TestDocument_Slug(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want string
	}{
		{
			name: "object slug",
			doc:  Document{"slug": map[string]any{"current": "about"}},
			want: "about",
		},
		{
			name: "string slug",
			doc:  Document{"slug": "about"},
			want: "about",
		},
		{
			name: "missing slug",
			doc:  Document{"_id": "abc"},
			want: "",
		},
		{
			name: "malformed slug",
			doc:  Document{"slug": 42},
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.doc.Slug(); got != tc.want {
				t.Errorf("Slug() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDocument_Name(t *testing.T) {
	// "name" wins over "title"
	doc := Document{"name": "Home", "title": "Homepage"}
	if got := doc.Name(); got != "Home" {
		t.Errorf("Name() = %q, want Home", got)
	}

	// Fall back to "title"
	doc = Document{"title": "Homepage"}
	if got := doc.Name(); got != "Homepage" {
		t.Errorf("Name() = %q, want Homepage", got)
	}
}

func TestDocument_IsDraft(t *testing.T) {
	if !(Document{"_id": "drafts.x"}).IsDraft() {
		t.Error("drafts.x should be a draft")
	}
	if (Document{"_id": "x"}).IsDraft() {
		t.Error("x should not be a draft")
	}
}
