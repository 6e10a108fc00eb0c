// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package repo

// =============================================================================
// DOCUMENT TYPE
// =============================================================================

// Document is a schemaless content repository document. The repository does
// not enforce a field layout beyond the underscore-prefixed system fields, so
// documents are carried as maps with typed accessors for the fields the core
// cares about.
type Document map[string]any

// ID returns the document's "_id" field, or "" if absent.
func (d Document) ID() string {
	return d.stringField("_id")
}

// Type returns the document's "_type" field, or "" if absent.
func (d Document) Type() string {
	return d.stringField("_type")
}

// Name returns a human-readable label for the document.
// Checks "name" then "title", matching the repository's display convention.
func (d Document) Name() string {
	if name := d.stringField("name"); name != "" {
		return name
	}
	return d.stringField("title")
}

// Slug returns the document's slug, handling both the object form
// {"slug": {"current": "about"}} and the bare string form {"slug": "about"}.
func (d Document) Slug() string {
	switch v := d["slug"].(type) {
	case string:
		return v
	case map[string]any:
		if current, ok := v["current"].(string); ok {
			return current
		}
	}
	return ""
}

// IsDraft reports whether the document is the draft variant.
func (d Document) IsDraft() bool {
	return IsDraftID(d.ID())
}

func (d Document) stringField(key string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return ""
}
