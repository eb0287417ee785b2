package loader

import (
	"strings"
	"unicode/utf8"

	"github.com/dannythedev/file-archive-overlap-finder/internal/models"
)

// plainHandler serves text-like files (.txt, source code, .md, .json, .xml,
// .csv). Content is returned as-is after UTF-8 validation; invalid sequences
// are replaced with the replacement character. Plain files have no pagination,
// so the whole text maps to page 1.
type plainHandler struct{}

func (plainHandler) Extract(content []byte, _ string) (string, models.PageMap, error) {
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	if text == "" {
		return "", nil, nil
	}
	return text, models.PageMap{{Number: 1, Start: 0, End: len(text)}}, nil
}
