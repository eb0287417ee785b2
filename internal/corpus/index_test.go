package corpus

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dannythedev/file-archive-overlap-finder/internal/loader"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIndexCachesTokenSets(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "alpha beta gamma")
	ix := NewIndex(loader.NewLoader())
	ctx := context.Background()

	first, err := ix.TokenSet(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if first.Len() != 3 {
		t.Errorf("token count = %d, want 3", first.Len())
	}
	second, err := ix.TokenSet(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("expected the cached token set on the second lookup")
	}
	if ix.Len() != 1 {
		t.Errorf("index size = %d, want 1", ix.Len())
	}
}

func TestIndexInvalidatesOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "alpha beta")
	ix := NewIndex(loader.NewLoader())
	ctx := context.Background()

	first, err := ix.TokenSet(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	// Rewrite with different content and an mtime in the future so the
	// change is visible even on filesystems with coarse timestamps.
	if err := os.WriteFile(path, []byte("gamma delta epsilon"), 0644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}
	second, err := ix.TokenSet(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("expected a fresh token set after the file changed")
	}
	if second.Len() != 3 {
		t.Errorf("token count = %d, want 3", second.Len())
	}
}

func TestIndexExplicitInvalidate(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "alpha")
	ix := NewIndex(loader.NewLoader())
	if _, err := ix.TokenSet(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	ix.Invalidate(path)
	if ix.Len() != 0 {
		t.Errorf("index size after Invalidate = %d, want 0", ix.Len())
	}
}

func TestIndexMissingFile(t *testing.T) {
	ix := NewIndex(loader.NewLoader())
	_, err := ix.TokenSet(context.Background(), filepath.Join(t.TempDir(), "gone.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if loader.KindOf(err) != loader.KindIOError {
		t.Errorf("kind = %q, want %q", loader.KindOf(err), loader.KindIOError)
	}
}

func TestIndexCancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "alpha")
	ix := NewIndex(loader.NewLoader())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ix.TokenSet(ctx, path); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestIndexConcurrentLookups(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "alpha beta gamma delta")
	ix := NewIndex(loader.NewLoader())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ix.TokenSet(ctx, path); err != nil {
				t.Errorf("concurrent lookup failed: %v", err)
			}
		}()
	}
	wg.Wait()
	if ix.Len() != 1 {
		t.Errorf("index size = %d, want 1", ix.Len())
	}
}
