// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence and local flags.
//
// Conversations are stored one JSON file each, written atomically (fsync
// then rename) so a crash never leaves a half-written file. Listing is
// sorted most recent first and retention is bounded; the oldest
// conversations are removed when the bound is exceeded.
//
// Persisted actions carry their lifecycle snapshot. On load, terminal
// actions keep their status and result; an action that was mid-execution
// comes back pending and a message that was mid-stream comes back errored,
// since neither can finish after a restart.
//
// # Key Types
//
//   - Store: conversation persistence (save, load, list, search, delete)
//   - StoredConversation: the on-disk conversation form
//   - Flags: a small bool/string key/value store for persistent UI state
//
// # Usage
//
// Create a store and save a conversation:
//
//	store, err := storage.NewStore(dataDir)
//	err = store.Save(conversation)
//
// List and load conversations:
//
//	metas, err := store.List()
//	conv, err := store.Load(metas[0].ID)
//
// # Storage Location
//
// The default location is ~/.draftsmith/conversations/.
package storage
