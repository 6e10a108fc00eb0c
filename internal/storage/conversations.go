// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence and local flags.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/morganforge/draftsmith/internal/action"
	"github.com/morganforge/draftsmith/internal/model"
	"github.com/morganforge/draftsmith/internal/util"
)

// =============================================================================
// STORED FORMS
// =============================================================================

// StoredConversation is the on-disk form of a conversation.
type StoredConversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []StoredMessage `json:"messages"`
}

// StoredMessage is the on-disk form of a message.
type StoredMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	ErrorText string    `json:"error_text,omitempty"`

	Actions []StoredAction `json:"actions,omitempty"`
}

// StoredAction is the on-disk form of an action, including its lifecycle
// snapshot.
type StoredAction struct {
	ID      string         `json:"id"`
	Type    action.Type    `json:"type"`
	Payload action.Payload `json:"payload"`
	State   action.State   `json:"state"`
}

// =============================================================================
// STORE
// =============================================================================

// Store persists conversations as one JSON file each.
type Store struct {
	// BaseDir is the directory conversations are stored in.
	BaseDir string

	// MaxConversations bounds retention (0 = unlimited). Oldest
	// conversations are removed first.
	MaxConversations int
}

// DefaultDir returns the default conversation directory.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".draftsmith", "conversations"), nil
}

// NewStore creates a store rooted at baseDir, creating it if needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &Store{
		BaseDir:          baseDir,
		MaxConversations: 100,
	}, nil
}

// =============================================================================
// SAVE
// =============================================================================

// Save persists a conversation.
func (s *Store) Save(conv *model.Conversation) error {
	stored := toStored(conv)
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = stored.UpdatedAt
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(s.filePath(conv.ID), data, 0644); err != nil {
		return err
	}

	if s.MaxConversations > 0 {
		s.enforceLimit()
	}
	return nil
}

// enforceLimit removes the oldest conversations when over the retention
// bound.
func (s *Store) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxConversations {
		return
	}

	// List is most recent first; everything past the bound goes.
	for _, meta := range metas[s.MaxConversations:] {
		s.Delete(meta.ID)
	}
}

// =============================================================================
// LOAD
// =============================================================================

// Load retrieves a conversation by ID.
func (s *Store) Load(id string) (*model.Conversation, error) {
	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	var stored StoredConversation
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	return fromStored(&stored), nil
}

// =============================================================================
// LIST AND SEARCH
// =============================================================================

// List returns metadata for all saved conversations, most recent first.
func (s *Store) List() ([]model.ConversationMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.ConversationMeta{}, nil
		}
		return nil, err
	}

	var metas []model.ConversationMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		conv, err := s.Load(id)
		if err != nil {
			// Skip corrupted files
			continue
		}
		metas = append(metas, conv.GetMeta())
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Search finds conversations whose title or preview contains the query,
// case-insensitive.
func (s *Store) Search(query string) ([]model.ConversationMeta, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var results []model.ConversationMeta
	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Title), query) ||
			strings.Contains(strings.ToLower(meta.Preview), query) {
			results = append(results, meta)
		}
	}
	return results, nil
}

// SearchMessages finds conversations where any message body contains the
// query, case-insensitive. Empty query matches everything.
func (s *Store) SearchMessages(query string) ([]model.ConversationMeta, error) {
	if query == "" {
		return s.List()
	}

	all, err := s.List()
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var results []model.ConversationMeta
	for _, meta := range all {
		conv, err := s.Load(meta.ID)
		if err != nil {
			continue
		}
		for _, msg := range conv.Messages {
			if strings.Contains(strings.ToLower(msg.Content), query) {
				results = append(results, meta)
				break
			}
		}
	}
	return results, nil
}

// =============================================================================
// DELETE
// =============================================================================

// Delete removes a conversation by ID.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrConversationNotFound
		}
		return err
	}
	return nil
}

// Clear removes all saved conversations.
func (s *Store) Clear() error {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			os.Remove(filepath.Join(s.BaseDir, entry.Name()))
		}
	}
	return nil
}

// =============================================================================
// CONVERSION
// =============================================================================

func toStored(conv *model.Conversation) *StoredConversation {
	stored := &StoredConversation{
		ID:        conv.ID,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
		Messages:  make([]StoredMessage, 0, len(conv.Messages)),
	}

	for _, msg := range conv.Messages {
		sm := StoredMessage{
			ID:        msg.ID,
			Role:      msg.Role.String(),
			Content:   msg.Content,
			Status:    string(msg.Status),
			Timestamp: msg.Timestamp,
			ErrorText: msg.ErrorText,
		}
		for _, a := range msg.Actions {
			sm.Actions = append(sm.Actions, StoredAction{
				ID:      a.ID,
				Type:    a.Type,
				Payload: a.Payload,
				State:   a.State(),
			})
		}
		stored.Messages = append(stored.Messages, sm)
	}
	return stored
}

func fromStored(stored *StoredConversation) *model.Conversation {
	conv := &model.Conversation{
		ID:        stored.ID,
		Title:     stored.Title,
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
		Messages:  make([]*model.Message, 0, len(stored.Messages)),
	}

	for _, sm := range stored.Messages {
		msg := &model.Message{
			ID:        sm.ID,
			Role:      model.Role(sm.Role),
			Content:   sm.Content,
			Status:    model.MessageStatus(sm.Status),
			Timestamp: sm.Timestamp,
			ErrorText: sm.ErrorText,
		}
		// A message that was mid-stream when persisted can never finish.
		if msg.Status == model.MessageStreaming {
			msg.Status = model.MessageError
			if msg.ErrorText == "" {
				msg.ErrorText = "response interrupted"
			}
		}
		for _, sa := range sm.Actions {
			msg.Actions = append(msg.Actions, action.Restore(sa.ID, sa.Type, sa.Payload, sa.State))
		}
		conv.Messages = append(conv.Messages, msg)
	}
	return conv
}

// =============================================================================
// HELPERS AND ERRORS
// =============================================================================

// filePath returns the file path for a conversation ID.
func (s *Store) filePath(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}

// ErrConversationNotFound is returned when a conversation doesn't exist.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

// ConversationError represents a conversation-related error.
type ConversationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing conversation errors.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders a conversation as Markdown with role labels and
// timestamps.
func ExportMarkdown(conv *model.Conversation) string {
	var sb strings.Builder
	sb.WriteString("# " + conv.GetTitle() + "\n\n")
	sb.WriteString("Created: " + conv.CreatedAt.Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range conv.Messages {
		sb.WriteString("**" + msg.Role.DisplayName() + "** (" + msg.Timestamp.Format("15:04") + "):\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}
