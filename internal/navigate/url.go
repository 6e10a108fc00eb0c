// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package navigate builds URLs for continuing a conversation in another
// editing surface.
package navigate

import "errors"

// =============================================================================
// TARGET
// =============================================================================

// Target identifies a document a navigation can land on.
type Target struct {
	Type string
	ID   string
	Slug string
}

// ErrAmbiguous is returned when a conversation concerns more than one
// document. The caller must present the list and let the user pick rather
// than guessing the most relevant one.
var ErrAmbiguous = errors.New("multiple documents in context")

// ErrNoTarget is returned when there is nothing to navigate to.
var ErrNoTarget = errors.New("no document in context")

// =============================================================================
// ROUTES
// =============================================================================

// routes maps document types with a public route to their path prefix.
// Types absent from this table have no slug-keyed preview URL and always
// use the generic editing form.
var routes = map[string]string{
	"page":    "",
	"post":    "/blog",
	"product": "/products",
}

// TypeHasRoute reports whether documents of this type have a slug-keyed
// public route, meaning a missing slug is worth an enrichment fetch.
func TypeHasRoute(docType string) bool {
	_, ok := routes[docType]
	return ok
}

// =============================================================================
// URL CONSTRUCTION
// =============================================================================

// IntentURL builds the generic editing-surface URL: /<tool>/<type>;<id>.
func IntentURL(tool, docType, id string) string {
	return "/" + tool + "/" + docType + ";" + id
}

// PreviewURL builds the slug-keyed preview URL for a document type.
// Returns false when the type has no public route.
func PreviewURL(docType, slug string) (string, bool) {
	prefix, ok := routes[docType]
	if !ok || slug == "" {
		return "", false
	}
	return prefix + "/" + slug, true
}

// URLFor builds the best URL for one target: the preview form when a slug is
// available, otherwise the type/id form. Never returns an empty URL.
func URLFor(tool string, target Target) string {
	if url, ok := PreviewURL(target.Type, target.Slug); ok {
		return url
	}
	return IntentURL(tool, target.Type, target.ID)
}

// ForTargets resolves a navigation URL for a conversation's document
// context. With more than one target the choice belongs to the user.
func ForTargets(tool string, targets []Target) (string, error) {
	switch len(targets) {
	case 0:
		return "", ErrNoTarget
	case 1:
		return URLFor(tool, targets[0]), nil
	default:
		return "", ErrAmbiguous
	}
}
