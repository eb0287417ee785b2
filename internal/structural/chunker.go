// Package structural implements paragraph chunking and on-demand structural
// alignment of one reference/target document pair.
package structural

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/dannythedev/file-archive-overlap-finder/internal/models"
)

// paragraphBreak matches two or more consecutive newlines, i.e. a blank-line
// paragraph boundary.
var paragraphBreak = regexp.MustCompile(`\n{2,}`)

// SplitChunks splits a document's extracted text into paragraph chunks on
// blank-line boundaries. Each chunk keeps its offsets into the original text
// and is tagged with the page containing its start offset. Whitespace-only
// chunks are dropped.
func SplitChunks(doc *models.Document) []models.Chunk {
	text := doc.Text
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var chunks []models.Chunk
	emit := func(start, end int) {
		raw := text[start:end]
		left := strings.TrimLeftFunc(raw, unicode.IsSpace)
		start += len(raw) - len(left)
		trimmed := strings.TrimRightFunc(left, unicode.IsSpace)
		if trimmed == "" {
			return
		}
		chunks = append(chunks, models.Chunk{
			Text:  trimmed,
			Page:  doc.PageMap.PageAt(start),
			Start: start,
			End:   start + len(trimmed),
		})
	}
	segStart := 0
	for _, br := range paragraphBreak.FindAllStringIndex(text, -1) {
		emit(segStart, br[0])
		segStart = br[1]
	}
	emit(segStart, len(text))
	return chunks
}
