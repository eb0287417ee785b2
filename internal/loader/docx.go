package loader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dannythedev/file-archive-overlap-finder/internal/models"
)

// docxHandler extracts paragraph text from Word documents. Word files carry
// no fixed pagination, so the whole document maps to page 1. Paragraphs are
// joined with blank lines to preserve paragraph boundaries for chunking.
// Registered for .doc as well: legacy binary files fail the zip parse and
// surface as corrupt rather than silently yielding nothing.
type docxHandler struct{}

func (docxHandler) Extract(content []byte, path string) (string, models.PageMap, error) {
	doc, err := docx.Parse(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", nil, &LoadError{Path: path, Kind: KindCorruptFile, Err: fmt.Errorf("parse docx: %w", err)}
	}
	var b strings.Builder
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := paragraphText(para)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}
	text := b.String()
	if text == "" {
		return "", nil, nil
	}
	return text, models.PageMap{{Number: 1, Start: 0, End: len(text)}}, nil
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
