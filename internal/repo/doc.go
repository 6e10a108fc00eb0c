// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package repo provides the HTTP client for the content repository API.
//
// The core only requires four capabilities from the repository: fetch,
// create, patch, and delete, plus awareness of draft/published ID duality.
// Everything else (query language, transport, write semantics) is the
// repository's concern.
//
// # Key Types
//
//   - Client: the narrow read/write interface consumed by the core
//   - HTTPClient: Client implementation over the repository HTTP API
//   - Document: schemaless document with typed accessors (_id, _type, slug)
//   - ClientError: categorized client error with sentinel values
//
// # Usage
//
// Create a client and fetch documents:
//
//	client := repo.NewHTTPClient(repo.DefaultClientConfig(), log)
//	docs, err := client.Fetch(ctx, `*[_type == $type]`, map[string]any{"type": "page"})
//
// # Draft/published duality
//
// A document ID may exist as both "drafts.<id>" and "<id>". The core always
// normalizes to the bare ID for deduplication and display:
//
//	repo.NormalizeID("drafts.abc123") // "abc123"
package repo
