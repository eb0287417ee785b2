// Package corpus maintains the per-session token set cache for scanned files.
package corpus

import (
	"context"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dannythedev/file-archive-overlap-finder/internal/loader"
	"github.com/dannythedev/file-archive-overlap-finder/internal/models"
	"github.com/dannythedev/file-archive-overlap-finder/internal/tokenizer"
)

type entry struct {
	tokens *models.TokenSet
	size   int64
	mtime  time.Time
}

// Index caches token sets by document path for the lifetime of one scan
// session. A lookup either returns the cached entry or triggers load+tokenize
// and inserts the result; concurrent misses for the same path are collapsed
// into a single load via singleflight. An entry is invalidated when the file's
// size or modification time changes. The index holds only token sets and
// metadata, never extracted text, and is discarded at session end.
type Index struct {
	loader *loader.Loader

	mu      sync.RWMutex
	entries map[string]*entry
	group   singleflight.Group
}

// NewIndex creates an empty index backed by the given loader.
func NewIndex(l *loader.Loader) *Index {
	return &Index{
		loader:  l,
		entries: make(map[string]*entry),
	}
}

// TokenSet returns the token set for path, loading and tokenizing on a miss
// or when the file has changed since it was cached.
func (ix *Index) TokenSet(ctx context.Context, path string) (*models.TokenSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, &loader.LoadError{Path: path, Kind: loader.KindIOError, Err: err}
	}
	ix.mu.RLock()
	e, ok := ix.entries[path]
	ix.mu.RUnlock()
	if ok && e.size == info.Size() && e.mtime.Equal(info.ModTime()) {
		return e.tokens, nil
	}

	v, err, _ := ix.group.Do(path, func() (interface{}, error) {
		// Another flight may have populated the entry while we waited.
		ix.mu.RLock()
		e, ok := ix.entries[path]
		ix.mu.RUnlock()
		if ok && e.size == info.Size() && e.mtime.Equal(info.ModTime()) {
			return e.tokens, nil
		}
		doc, err := ix.loader.Load(path)
		if err != nil {
			return nil, err
		}
		ts := tokenizer.NewTokenSet(path, doc.Text)
		ix.mu.Lock()
		ix.entries[path] = &entry{tokens: ts, size: info.Size(), mtime: info.ModTime()}
		ix.mu.Unlock()
		return ts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.TokenSet), nil
}

// Invalidate drops the cached entry for path, forcing the next lookup to
// re-tokenize. Used by the corpus watcher when a file changes mid-session.
func (ix *Index) Invalidate(path string) {
	ix.mu.Lock()
	delete(ix.entries, path)
	ix.mu.Unlock()
}

// Len returns the number of cached entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}
