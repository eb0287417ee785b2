// Package tokenizer normalizes document text into token sets for overlap scoring.
// It lower-cases input and splits on non-alphanumeric boundaries; every token
// of length >= 1 is kept. Tokenize is a pure function: identical input always
// yields an identical set, independent of call order or prior state.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/dannythedev/file-archive-overlap-finder/internal/models"
)

// Tokenize returns the deduplicated set of normalized tokens in text.
func Tokenize(text string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// NewTokenSet tokenizes text and tags the set with its owning document path.
func NewTokenSet(path, text string) *models.TokenSet {
	return &models.TokenSet{Path: path, Tokens: Tokenize(text)}
}
