// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package doccache caches enriched document metadata in SQLite.
//
// The document context resolver consults this cache before issuing an
// enrichment fetch, so reopening a conversation does not re-fetch slugs the
// assistant already looked up. Entries are keyed by the normalized
// (draft-prefix-stripped) document ID and expire after a TTL.
//
// Concurrent resolutions of the same ID collapse into a single repository
// fetch via singleflight.
package doccache
