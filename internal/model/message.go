// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/morganforge/draftsmith/internal/action"
	"github.com/morganforge/draftsmith/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE STATUS
// =============================================================================

// MessageStatus describes whether a message's text is still arriving.
type MessageStatus string

const (
	// MessageStreaming - the assistant is still producing text.
	MessageStreaming MessageStatus = "streaming"

	// MessageComplete - the text is final.
	MessageComplete MessageStatus = "complete"

	// MessageError - the assistant call backing this message failed.
	MessageError MessageStatus = "error"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single turn in a conversation. Assistant messages may
// propose an ordered list of actions; each action's lifecycle is independent
// of the message once parsed.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string        `json:"content"`
	Status  MessageStatus `json:"status"`

	// Actions proposed by this message, in proposal order.
	Actions []*action.Action `json:"actions,omitempty"`

	// ErrorText describes why the assistant call failed (Status == error).
	ErrorText string `json:"error_text,omitempty"`
}

// NewUserMessage creates a complete user message.
func NewUserMessage(content string) *Message {
	return &Message{
		ID:        generateMessageID(),
		Role:      RoleUser,
		Content:   content,
		Status:    MessageComplete,
		Timestamp: time.Now(),
	}
}

// NewAssistantMessage creates a streaming assistant message with no content
// yet.
func NewAssistantMessage() *Message {
	return &Message{
		ID:        generateMessageID(),
		Role:      RoleAssistant,
		Status:    MessageStreaming,
		Timestamp: time.Now(),
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendText appends streamed text to a message that is still arriving.
func (m *Message) AppendText(text string) {
	if m.Status == MessageStreaming {
		m.Content += text
	}
}

// Finalize marks the message text as final.
func (m *Message) Finalize() {
	if m.Status == MessageStreaming {
		m.Status = MessageComplete
	}
}

// MarkError marks the message as failed with a description. The recovery
// path is retrying the last user message at the conversation level.
func (m *Message) MarkError(description string) {
	m.Status = MessageError
	m.ErrorText = description
}

// AddAction appends a parsed action proposal to the message.
func (m *Message) AddAction(a *action.Action) {
	m.Actions = append(m.Actions, a)
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	return util.TruncateRunes(m.Content, maxLen)
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateMessageID creates a unique message ID.
func generateMessageID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}
