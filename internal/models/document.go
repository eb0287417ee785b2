// Package models defines core data structures for documents, scans, and structural reports.
package models

// PageSpan maps the half-open character range [Start, End) of a document's
// extracted text to a page number.
type PageSpan struct {
	Number int `json:"number"`
	Start  int `json:"start"`
	End    int `json:"end"`
}

// PageMap is an ordered list of non-overlapping page spans with ascending offsets.
type PageMap []PageSpan

// PageAt returns the page number of the span containing offset. Offsets past
// the end of the last span map to the last page; an empty map or a negative
// offset maps to page 1.
func (m PageMap) PageAt(offset int) int {
	if len(m) == 0 || offset < 0 {
		return 1
	}
	lo, hi := 0, len(m)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if m[mid].End <= offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return m[lo].Number
}

// Document is a loaded document: its path, extracted text, and page map.
// Produced by the loader and never mutated by the engine.
type Document struct {
	Path    string  `json:"path"`
	Text    string  `json:"text"`
	PageMap PageMap `json:"page_map"`
}

// TokenSet is the deduplicated set of normalized tokens of one document,
// tagged with the owning path. Immutable after construction.
type TokenSet struct {
	Path   string
	Tokens map[string]struct{}
}

// Len returns the number of distinct tokens in the set.
func (t *TokenSet) Len() int {
	return len(t.Tokens)
}
