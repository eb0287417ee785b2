package loader

import (
	"errors"
	"fmt"
)

// Kind classifies document load failures so callers can distinguish
// configuration mistakes from per-document issues.
type Kind string

const (
	// KindUnsupportedFormat means no handler is registered for the file's extension.
	KindUnsupportedFormat Kind = "unsupported_format"
	// KindCorruptFile means the file was read but could not be parsed.
	KindCorruptFile Kind = "corrupt_file"
	// KindIOError means the file could not be read at all.
	KindIOError Kind = "io_error"
)

// LoadError is a typed document load failure.
type LoadError struct {
	Path string
	Kind Kind
	Err  error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.Path, e.Kind)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err if it is (or wraps) a LoadError, or "" otherwise.
func KindOf(err error) Kind {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}
