// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package docctx derives which documents a conversation is about.
//
// The resolver scans the active conversation's messages and the actions
// attached to them, collecting document references from three layers:
//
//  1. Free-text fragments in message content (lowest priority)
//  2. Action payloads (the documents an action targets)
//  3. Completed action results (the documents an action actually touched)
//
// For a given document ID, later layers overwrite what earlier layers
// contributed, so structured action data always wins over pattern-matched
// text. Draft and published forms of the same document collapse into one
// entry keyed by the published ID.
//
// The derived context is ordered most-recently-referenced first and is
// recomputed from scratch on every message-list change. A manual selection
// set by the user suppresses derivation entirely until the active
// conversation changes.
//
// # Key Types
//
//   - DocumentContext: one resolved document with as much metadata as known
//   - Resolver: scans conversations and owns the current context
//   - Extractor: the pluggable free-text extraction layer
//   - MetadataSource: backing store for slug enrichment fetches
//
// # Usage
//
//	resolver := docctx.NewResolver(log)
//	contexts := resolver.Resolve(conversation)
//	resolver.EnrichLatest(ctx, cache)
//	url, err := navigate.ForTargets("edit", resolver.Targets())
//
// Enrichment is best-effort: a failed or stale fetch leaves the context as
// it was, and navigation falls back to the type/id URL form.
package docctx
