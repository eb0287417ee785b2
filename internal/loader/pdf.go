package loader

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/dannythedev/file-archive-overlap-finder/internal/models"
)

// pdfHandler extracts per-page text from PDF bytes and records the character
// range each page occupies in the concatenated output.
type pdfHandler struct{}

func (pdfHandler) Extract(content []byte, path string) (string, models.PageMap, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", nil, &LoadError{Path: path, Kind: KindCorruptFile, Err: fmt.Errorf("open PDF: %w", err)}
	}
	var buf bytes.Buffer
	var pages models.PageMap
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", nil, &LoadError{Path: path, Kind: KindCorruptFile, Err: fmt.Errorf("extract page %d: %w", i, err)}
		}
		start := buf.Len()
		buf.WriteString(text)
		if i < numPages {
			buf.WriteByte('\n')
		}
		pages = append(pages, models.PageSpan{Number: i, Start: start, End: buf.Len()})
	}
	return buf.String(), pages, nil
}
