// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"time"

	"github.com/morganforge/draftsmith/internal/model"
)

// =============================================================================
// RECENCY BUCKETS
// =============================================================================

// Bucket is a recency group for the conversation list.
type Bucket string

const (
	BucketToday      Bucket = "today"
	BucketYesterday  Bucket = "yesterday"
	BucketLast7Days  Bucket = "last7days"
	BucketLast30Days Bucket = "last30days"
	BucketOlder      Bucket = "older"
)

// bucketOrder is the rendering order, most recent first.
var bucketOrder = []Bucket{
	BucketToday,
	BucketYesterday,
	BucketLast7Days,
	BucketLast30Days,
	BucketOlder,
}

// Label returns a human-readable heading for the bucket.
func (b Bucket) Label() string {
	switch b {
	case BucketToday:
		return "Today"
	case BucketYesterday:
		return "Yesterday"
	case BucketLast7Days:
		return "Last 7 days"
	case BucketLast30Days:
		return "Last 30 days"
	case BucketOlder:
		return "Older"
	}
	return string(b)
}

// BucketFor assigns a conversation timestamp to a recency bucket. Boundaries
// are day-aligned against now's calendar day, and a timestamp belongs to the
// first bucket whose lower bound it meets, checked most recent first.
func BucketFor(updatedAt, now time.Time) Bucket {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case !updatedAt.Before(dayStart):
		return BucketToday
	case !updatedAt.Before(dayStart.AddDate(0, 0, -1)):
		return BucketYesterday
	case !updatedAt.Before(dayStart.AddDate(0, 0, -7)):
		return BucketLast7Days
	case !updatedAt.Before(dayStart.AddDate(0, 0, -30)):
		return BucketLast30Days
	}
	return BucketOlder
}

// =============================================================================
// GROUPING
// =============================================================================

// Group is one rendered section of the conversation list.
type Group struct {
	Bucket        Bucket
	Conversations []model.ConversationMeta
}

// GroupByRecency partitions an already recency-sorted slice of conversation
// metadata into non-empty buckets, ordered most recent bucket first. The
// input order within each bucket is preserved.
func GroupByRecency(metas []model.ConversationMeta, now time.Time) []Group {
	byBucket := make(map[Bucket][]model.ConversationMeta)
	for _, meta := range metas {
		b := BucketFor(meta.UpdatedAt, now)
		byBucket[b] = append(byBucket[b], meta)
	}

	groups := make([]Group, 0, len(byBucket))
	for _, b := range bucketOrder {
		if members := byBucket[b]; len(members) > 0 {
			groups = append(groups, Group{Bucket: b, Conversations: members})
		}
	}
	return groups
}

// =============================================================================
// PAGINATION
// =============================================================================

// DefaultPageSize is how many conversations are grouped and rendered before
// the user asks for more.
const DefaultPageSize = 20

// Pager tracks how much of the recency-sorted conversation list is visible.
// Loading more extends the window without re-sorting what is already shown.
type Pager struct {
	pageSize int
	visible  int
}

// NewPager creates a pager showing one page.
func NewPager(pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager{pageSize: pageSize, visible: pageSize}
}

// Visible returns the currently revealed prefix of the list.
func (p *Pager) Visible(metas []model.ConversationMeta) []model.ConversationMeta {
	if len(metas) <= p.visible {
		return metas
	}
	return metas[:p.visible]
}

// HasMore reports whether the list extends past the visible window.
func (p *Pager) HasMore(total int) bool {
	return total > p.visible
}

// LoadMore reveals one more page.
func (p *Pager) LoadMore() {
	p.visible += p.pageSize
}

// Reset collapses the window back to a single page.
func (p *Pager) Reset() {
	p.visible = p.pageSize
}
