// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the active conversation and the conversation list.
//
// The Manager is the single writer for the active conversation's message
// list. The resolver and the action runner read that list and write action
// state back through it, so one update is visible to every consumer.
//
// The conversation list is recency-sorted, windowed by a Pager (20 at a
// time, extended by LoadMore), and partitioned into day-aligned buckets
// (today, yesterday, last 7 days, last 30 days, older) for rendering.
//
// Switching conversations clears any manual document selection and retags
// the resolver so enrichment fetches still in flight for the previous
// conversation are discarded when they resolve.
//
// # Key Types
//
//   - Manager: active conversation ownership, send/retry, error surface
//   - Store: persistence dependency, satisfied by storage.Store
//   - Responder: the assistant backend
//   - Bucket, Group, Pager: the grouped, paginated list view
//
// Failures are recorded where they happen. An action failure stays on the
// action, a message failure stays on the message, and only an assistant
// call that produced no response at all raises the manager's
// conversation-wide error.
package session
