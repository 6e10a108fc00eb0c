// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package docctx

import (
	"context"

	"github.com/morganforge/draftsmith/internal/doccache"
	"github.com/morganforge/draftsmith/internal/navigate"
	"github.com/morganforge/draftsmith/internal/telemetry"
)

// =============================================================================
// ENRICHMENT
// =============================================================================

// MetadataSource resolves document metadata for enrichment. Satisfied by
// *doccache.Cache.
type MetadataSource interface {
	Resolve(ctx context.Context, id string) (doccache.Entry, error)
}

// EnrichLatest fills in the slug of the most recent candidate when its type
// needs one for preview navigation. The entry is marked IsLoading for the
// duration and updated in place.
//
// The fetch is tagged with the conversation it was issued for: if the active
// conversation changes while the fetch is outstanding, its result is
// discarded at resolution time instead of overwriting the new conversation's
// state. On fetch failure the candidate keeps the fields it already had and
// navigation degrades to the type/id URL form.
func (r *Resolver) EnrichLatest(ctx context.Context, source MetadataSource) {
	r.mu.Lock()
	if r.hasManual || len(r.entries) == 0 {
		r.mu.Unlock()
		return
	}

	top := r.entries[0]
	if top.Slug != "" || !navigate.TypeHasRoute(top.DocumentType) {
		r.mu.Unlock()
		return
	}

	// Tag the fetch with the conversation it belongs to.
	issuedFor := r.conversationID
	id := top.DocumentID
	r.setLoadingLocked(id, true)
	r.mu.Unlock()

	entry, err := source.Resolve(ctx, id)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conversationID != issuedFor {
		// The user switched conversations while the fetch was in flight;
		// this result belongs to stale state.
		telemetry.EnrichmentFetches.WithLabelValues("stale").Inc()
		r.log.Debug().Str("id", id).Str("conversation", issuedFor).Msg("discarding stale enrichment")
		return
	}

	r.setLoadingLocked(id, false)
	if err != nil {
		// Keep whatever fields the candidate already had.
		r.log.Warn().Err(err).Str("id", id).Msg("enrichment fetch failed")
		return
	}

	for i := range r.entries {
		if r.entries[i].DocumentID != id {
			continue
		}
		if r.entries[i].Slug == "" {
			r.entries[i].Slug = entry.Slug
		}
		if r.entries[i].DocumentType == "" {
			r.entries[i].DocumentType = entry.Type
		}
		if r.entries[i].Name == "" {
			r.entries[i].Name = entry.Name
		}
	}
}

// setLoadingLocked flips the IsLoading flag on the entry with the given ID.
func (r *Resolver) setLoadingLocked(id string, loading bool) {
	for i := range r.entries {
		if r.entries[i].DocumentID == id {
			r.entries[i].IsLoading = loading
		}
	}
}
