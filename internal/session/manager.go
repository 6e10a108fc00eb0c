// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/morganforge/draftsmith/internal/docctx"
	"github.com/morganforge/draftsmith/internal/model"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Store persists conversations. Satisfied by *storage.Store.
type Store interface {
	Save(conv *model.Conversation) error
	Load(id string) (*model.Conversation, error)
	List() ([]model.ConversationMeta, error)
	Delete(id string) error
}

// Responder produces the assistant's reply for the conversation's latest
// user turn, appending and filling the trailing assistant message.
type Responder interface {
	Respond(ctx context.Context, conv *model.Conversation) error
}

// =============================================================================
// MANAGER
// =============================================================================

// Errors returned by the manager.
var (
	ErrNoActiveConversation = errors.New("no active conversation")
	ErrNothingToRetry       = errors.New("no user message to retry")
	ErrNoResponder          = errors.New("no responder configured")
)

// Manager exclusively owns the active conversation and its message list.
// Other components read the list and write action results back through it,
// never through a copy.
type Manager struct {
	store    Store
	resolver *docctx.Resolver
	log      zerolog.Logger

	mu        sync.Mutex
	active    *model.Conversation
	responder Responder
	pager     *Pager

	// lastError is the conversation-wide error surface. It is set only when
	// an assistant call produced no response at all; per-action and
	// per-message failures stay local to the action or message.
	lastError string
}

// NewManager creates a session manager.
func NewManager(store Store, resolver *docctx.Resolver, log zerolog.Logger) *Manager {
	return &Manager{
		store:    store,
		resolver: resolver,
		log:      log.With().Str("component", "session").Logger(),
		pager:    NewPager(DefaultPageSize),
	}
}

// SetResponder wires the assistant backend.
func (m *Manager) SetResponder(r Responder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = r
}

// Active returns the active conversation, or nil before the first Start or
// SwitchTo.
func (m *Manager) Active() *model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// StartNew creates and activates an empty conversation.
func (m *Manager) StartNew() *model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv := model.NewConversation()
	m.activateLocked(conv)
	m.log.Info().Str("conversation", conv.ID).Msg("started conversation")
	return conv
}

// SwitchTo loads a stored conversation and makes it active. Any manually
// curated document selection is cleared, and enrichment fetches issued for
// the previous conversation are discarded when they resolve.
func (m *Manager) SwitchTo(id string) (*model.Conversation, error) {
	conv, err := m.store.Load(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.activateLocked(conv)
	m.log.Info().Str("conversation", id).Msg("switched conversation")
	return conv, nil
}

// activateLocked installs a conversation as active and resets derived state.
func (m *Manager) activateLocked(conv *model.Conversation) {
	m.active = conv
	m.lastError = ""
	if m.resolver != nil {
		m.resolver.ResetForConversation(conv.ID)
	}
}

// Delete removes a stored conversation. Deleting the active conversation
// leaves the manager with no active conversation.
func (m *Manager) Delete(id string) error {
	if err := m.store.Delete(id); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil && m.active.ID == id {
		m.active = nil
		m.lastError = ""
		if m.resolver != nil {
			// Nothing is active; the deleted conversation's derived context
			// and manual selection must not stay readable.
			m.resolver.ResetForConversation("")
		}
	}
	return nil
}

// Persist saves the active conversation.
func (m *Manager) Persist() error {
	m.mu.Lock()
	conv := m.active
	m.mu.Unlock()

	if conv == nil {
		return ErrNoActiveConversation
	}
	return m.store.Save(conv)
}

// =============================================================================
// SENDING AND RETRY
// =============================================================================

// Send appends a user turn to the active conversation and asks the responder
// for a reply. A responder failure that produced no text at all raises the
// conversation-wide error surface; partial replies keep their text and the
// failure stays on the message.
func (m *Manager) Send(ctx context.Context, content string) error {
	m.mu.Lock()
	conv := m.active
	responder := m.responder
	m.mu.Unlock()

	if conv == nil {
		return ErrNoActiveConversation
	}
	if responder == nil {
		return ErrNoResponder
	}

	conv.AddUserMessage(content)
	return m.respond(ctx, conv, responder)
}

// RetryLast re-issues the conversation's last user turn, generating a fresh
// assistant response. Actions proposed by the failed attempt are not
// resubmitted; the new response carries its own.
func (m *Manager) RetryLast(ctx context.Context) error {
	m.mu.Lock()
	conv := m.active
	responder := m.responder
	m.mu.Unlock()

	if conv == nil {
		return ErrNoActiveConversation
	}
	if responder == nil {
		return ErrNoResponder
	}
	if conv.GetLastUserMessage() == nil {
		return ErrNothingToRetry
	}

	m.log.Info().Str("conversation", conv.ID).Msg("retrying last message")
	return m.respond(ctx, conv, responder)
}

// respond runs the responder and routes its failure to the right surface.
func (m *Manager) respond(ctx context.Context, conv *model.Conversation, responder Responder) error {
	m.mu.Lock()
	m.lastError = ""
	m.mu.Unlock()

	err := responder.Respond(ctx, conv)
	if saveErr := m.store.Save(conv); saveErr != nil {
		m.log.Warn().Err(saveErr).Str("conversation", conv.ID).Msg("persisting conversation failed")
	}
	if err == nil {
		return nil
	}

	last := conv.GetLastAssistantMessage()
	if last != nil && last.Status == model.MessageStreaming {
		last.MarkError(err.Error())
	}

	// Only a failure that prevented any response at all becomes a
	// conversation-wide error.
	if last == nil || last.IsEmpty() {
		m.mu.Lock()
		m.lastError = err.Error()
		m.mu.Unlock()
	}

	m.log.Warn().Err(err).Str("conversation", conv.ID).Msg("assistant call failed")
	return err
}

// =============================================================================
// ERROR SURFACE
// =============================================================================

// Error returns the conversation-wide error message, or "".
func (m *Manager) Error() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

// ClearError dismisses the conversation-wide error.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastError = ""
}

// =============================================================================
// LISTING
// =============================================================================

// Conversations returns the visible window of the conversation list,
// partitioned into recency buckets.
func (m *Manager) Conversations() ([]Group, error) {
	return m.conversationsAt(time.Now())
}

// conversationsAt is Conversations with an injectable clock.
func (m *Manager) conversationsAt(now time.Time) ([]Group, error) {
	metas, err := m.store.List()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	visible := m.pager.Visible(metas)
	m.mu.Unlock()

	return GroupByRecency(visible, now), nil
}

// HasMore reports whether conversations beyond the visible window exist.
func (m *Manager) HasMore() (bool, error) {
	metas, err := m.store.List()
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pager.HasMore(len(metas)), nil
}

// LoadMore reveals the next page of the conversation list.
func (m *Manager) LoadMore() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pager.LoadMore()
}
