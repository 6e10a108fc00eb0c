// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package docctx

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/morganforge/draftsmith/internal/action"
	"github.com/morganforge/draftsmith/internal/model"
	"github.com/morganforge/draftsmith/internal/navigate"
	"github.com/morganforge/draftsmith/internal/repo"
)

// =============================================================================
// DOCUMENT CONTEXT
// =============================================================================

// DocumentContext is the resolver's output unit: the best current
// understanding of one document the conversation concerns. It is a derived
// view, recomputed on every message-list change, never persisted.
type DocumentContext struct {
	// DocumentID is the repository ID with any draft prefix stripped.
	DocumentID string

	// DocumentType, Slug, and Name are filled in as far as the scan and
	// enrichment got.
	DocumentType string
	Slug         string
	Name         string

	// IsLoading is set while an enrichment fetch for this entry is in
	// flight.
	IsLoading bool
}

// Target converts the context into a navigation target.
func (d DocumentContext) Target() navigate.Target {
	return navigate.Target{Type: d.DocumentType, ID: d.DocumentID, Slug: d.Slug}
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver answers "which document(s) is this conversation about". It scans
// the active conversation's messages and executed actions, collapses draft
// and published IDs, and keeps the most recently referenced documents first.
//
// A manually curated selection always takes precedence over the scan and
// suppresses re-derivation until the conversation changes.
type Resolver struct {
	extractor Extractor
	log       zerolog.Logger

	mu             sync.Mutex
	conversationID string
	entries        []DocumentContext
	manual         []DocumentContext
	hasManual      bool
}

// NewResolver creates a resolver with the default regex extractor.
func NewResolver(log zerolog.Logger) *Resolver {
	return &Resolver{
		extractor: NewRegexExtractor(),
		log:       log.With().Str("component", "docctx").Logger(),
	}
}

// SetExtractor swaps the free-text extraction layer.
func (r *Resolver) SetExtractor(e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractor = e
}

// =============================================================================
// RESOLUTION
// =============================================================================

// slot accumulates one document's fields during a scan. seq tracks the most
// recent registration for ordering; idx breaks ties between records that
// arrived in the same action result.
type slot struct {
	ctx DocumentContext
	seq int
	idx int

	// Fields filled from structured action data. Text extraction never
	// overrides these, no matter which message came later.
	actionType bool
	actionName bool
}

// Resolve recomputes the document context from the conversation. Call on
// every change to the active message list. Running it twice over an
// unchanged conversation yields the same ordered list.
func (r *Resolver) Resolve(conv *model.Conversation) []DocumentContext {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conversationID != conv.ID {
		r.resetLocked(conv.ID)
	}

	// A user-authored selection wins over anything derived.
	if r.hasManual {
		return copyContexts(r.manual)
	}

	reg := make(map[string]*slot)
	seq := 0

	lookup := func(id string) *slot {
		if id == "" {
			return nil
		}
		key := repo.NormalizeID(id)
		s, ok := reg[key]
		if !ok {
			s = &slot{ctx: DocumentContext{DocumentID: key}}
			reg[key] = s
		}
		return s
	}

	// fromText registers a text-scraped reference. It counts for recency,
	// but fields a structured action has contributed stay untouched.
	fromText := func(ref Ref) {
		s := lookup(ref.ID)
		if s == nil {
			return
		}
		if ref.Type != "" && !s.actionType {
			s.ctx.DocumentType = ref.Type
		}
		if ref.Name != "" && !s.actionName {
			s.ctx.Name = ref.Name
		}
		seq++
		s.seq, s.idx = seq, 0
	}

	// fromAction registers structured action data at the given recency rank.
	fromAction := func(id, docType, slug, name string, rank, idx int) {
		s := lookup(id)
		if s == nil {
			return
		}
		if docType != "" {
			s.ctx.DocumentType = docType
			s.actionType = true
		}
		if slug != "" {
			s.ctx.Slug = slug
		}
		if name != "" {
			s.ctx.Name = name
			s.actionName = true
		}
		s.seq, s.idx = rank, idx
	}

	for _, msg := range conv.Messages {
		for _, ref := range r.extractor.Extract(msg.Content) {
			fromText(ref)
		}

		for _, a := range msg.Actions {
			// Payload is the baseline for any document-targeted action.
			if a.Payload.DocumentID != "" {
				seq++
				fromAction(a.Payload.DocumentID, a.Payload.DocumentType, "", "", seq, 0)
			}

			// Completed results carry richer fields.
			if a.Status() != action.StatusCompleted {
				continue
			}
			res := a.Result()
			if res == nil {
				continue
			}
			if len(res.Data) == 0 {
				if res.DocumentID != "" {
					seq++
					fromAction(res.DocumentID, a.Payload.DocumentType, "", "", seq, 0)
				}
				continue
			}
			// All records of one result share a rank so the result's own
			// order survives the recency sort.
			seq++
			for i, doc := range res.Data {
				fromAction(doc.ID(), doc.Type(), doc.Slug(), doc.Name(), seq, i)
			}
		}
	}

	// Carry enrichment over: slugs fetched for the previous derivation stay
	// valid for the same document.
	for _, prev := range r.entries {
		if s, ok := reg[prev.DocumentID]; ok && s.ctx.Slug == "" {
			s.ctx.Slug = prev.Slug
		}
	}

	slots := make([]*slot, 0, len(reg))
	for _, s := range reg {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].seq != slots[j].seq {
			return slots[i].seq > slots[j].seq
		}
		return slots[i].idx < slots[j].idx
	})

	entries := make([]DocumentContext, len(slots))
	for i, s := range slots {
		entries[i] = s.ctx
	}
	r.entries = entries

	return copyContexts(entries)
}

// Context returns the current document context without rescanning.
func (r *Resolver) Context() []DocumentContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hasManual {
		return copyContexts(r.manual)
	}
	return copyContexts(r.entries)
}

// Targets returns the current context as navigation targets.
func (r *Resolver) Targets() []navigate.Target {
	contexts := r.Context()
	targets := make([]navigate.Target, len(contexts))
	for i, c := range contexts {
		targets[i] = c.Target()
	}
	return targets
}

// =============================================================================
// MANUAL SELECTION
// =============================================================================

// SetManualSelection records a user-authored document selection. It takes
// precedence over the scan until the conversation changes.
func (r *Resolver) SetManualSelection(selection []DocumentContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manual = copyContexts(selection)
	r.hasManual = true
}

// HasManualSelection reports whether the current selection is user-authored.
func (r *Resolver) HasManualSelection() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasManual
}

// ResetForConversation clears all derived and manual state and retags the
// resolver with the new active conversation. In-flight enrichment fetches
// issued for the previous conversation are discarded when they resolve.
func (r *Resolver) ResetForConversation(conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked(conversationID)
}

func (r *Resolver) resetLocked(conversationID string) {
	r.conversationID = conversationID
	r.entries = nil
	r.manual = nil
	r.hasManual = false
}

func copyContexts(contexts []DocumentContext) []DocumentContext {
	out := make([]DocumentContext, len(contexts))
	copy(out, contexts)
	return out
}
