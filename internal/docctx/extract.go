// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package docctx

import "regexp"

// =============================================================================
// PERFORMANCE: Pre-compiled regex (compiled once at startup)
// =============================================================================

var (
	// fragmentRegex matches {_id: "...", ...}-shaped fragments in free text,
	// covering query results the assistant rendered as prose instead of
	// structured data. Deliberately permissive: quotes optional around keys,
	// type and name may be absent.
	fragmentRegex = regexp.MustCompile(`\{[^{}]*["']?_id["']?\s*:\s*["'][^"']+["'][^{}]*\}`)

	idFieldRegex   = regexp.MustCompile(`["']?_id["']?\s*:\s*["']([^"']+)["']`)
	typeFieldRegex = regexp.MustCompile(`["']?_type["']?\s*:\s*["']([^"']+)["']`)
	nameFieldRegex = regexp.MustCompile(`["']?(?:name|title)["']?\s*:\s*["']([^"']+)["']`)
)

// =============================================================================
// EXTRACTOR
// =============================================================================

// Ref is a document reference pulled out of free text. Only the ID is
// guaranteed; type and name are best-effort.
type Ref struct {
	ID   string
	Type string
	Name string
}

// Extractor pulls document references out of message text. Text extraction
// is a fallback layer: for the same document ID, structured action data
// always wins over anything extracted here. Kept behind an interface so the
// permissive pattern match can be swapped for a stricter schema without
// touching the resolver's merge logic.
type Extractor interface {
	Extract(text string) []Ref
}

// RegexExtractor is the default, permissive Extractor.
type RegexExtractor struct{}

// NewRegexExtractor creates the default extractor.
func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

// Extract implements Extractor.
func (e *RegexExtractor) Extract(text string) []Ref {
	if text == "" {
		return nil
	}

	var refs []Ref
	for _, fragment := range fragmentRegex.FindAllString(text, -1) {
		ref := Ref{}
		if m := idFieldRegex.FindStringSubmatch(fragment); m != nil {
			ref.ID = m[1]
		}
		if ref.ID == "" {
			continue
		}
		if m := typeFieldRegex.FindStringSubmatch(fragment); m != nil {
			ref.Type = m[1]
		}
		if m := nameFieldRegex.FindStringSubmatch(fragment); m != nil {
			ref.Name = m[1]
		}
		refs = append(refs, ref)
	}
	return refs
}
