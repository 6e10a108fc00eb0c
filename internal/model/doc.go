// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: ordered message list with identity and recency metadata
//   - Message: single turn with role, content, streaming status, and the
//     actions it proposed
//   - ConversationMeta: lightweight metadata for listing
//
// # Usage
//
// Create a conversation and add turns:
//
//	conv := model.NewConversation()
//	conv.AddUserMessage("Unpublish the about page")
//	msg := conv.AddAssistantMessage()
//	msg.AppendText("I can do that. ")
//	msg.Finalize()
//
// Attach a proposed action to an assistant message:
//
//	msg.AddAction(action.New(action.TypeUpdate, payload))
package model
