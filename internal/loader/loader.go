// Package loader provides document loading: text extraction plus a page map,
// dispatched to a format handler by file extension.
package loader

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dannythedev/file-archive-overlap-finder/internal/models"
)

// Handler extracts text and a page map from raw file bytes.
type Handler interface {
	Extract(content []byte, path string) (string, models.PageMap, error)
}

// Loader loads documents by dispatching on file extension. Adding a format
// means registering a new handler, not branching on type.
type Loader struct {
	handlers map[string]Handler
}

// plainExtensions are the text-like extensions served by the plain handler.
var plainExtensions = []string{".txt", ".py", ".c", ".cpp", ".h", ".java", ".md", ".json", ".xml", ".csv"}

// NewLoader returns a loader with handlers registered for all supported
// extensions: .pdf, .docx, .doc, and the plain text family.
func NewLoader() *Loader {
	l := &Loader{handlers: make(map[string]Handler)}
	l.Register(".pdf", pdfHandler{})
	word := docxHandler{}
	l.Register(".docx", word)
	l.Register(".doc", word)
	plain := plainHandler{}
	for _, ext := range plainExtensions {
		l.Register(ext, plain)
	}
	return l
}

// Register maps an extension (with leading dot, lowercase) to a handler.
func (l *Loader) Register(ext string, h Handler) {
	l.handlers[strings.ToLower(ext)] = h
}

// Supported reports whether files with the given extension can be loaded.
func (l *Loader) Supported(ext string) bool {
	_, ok := l.handlers[strings.ToLower(ext)]
	return ok
}

// Extensions returns the sorted list of registered extensions.
func (l *Loader) Extensions() []string {
	exts := make([]string, 0, len(l.handlers))
	for ext := range l.handlers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Load reads the file at path and extracts its text and page map.
// Failures are typed: KindUnsupportedFormat when no handler matches,
// KindIOError when the file cannot be read, KindCorruptFile when the
// handler cannot parse the content.
func (l *Loader) Load(path string) (*models.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	h, ok := l.handlers[ext]
	if !ok {
		return nil, &LoadError{Path: path, Kind: KindUnsupportedFormat, Err: errors.New("no handler for extension " + ext)}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Kind: KindIOError, Err: err}
	}
	text, pages, err := h.Extract(content, path)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			return nil, err
		}
		return nil, &LoadError{Path: path, Kind: KindCorruptFile, Err: err}
	}
	return &models.Document{Path: path, Text: text, PageMap: pages}, nil
}
