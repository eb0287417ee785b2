package structural

import (
	"testing"

	"github.com/dannythedev/file-archive-overlap-finder/internal/models"
)

func TestSplitChunks(t *testing.T) {
	doc := &models.Document{
		Path: "a.txt",
		Text: "first paragraph here\n\nsecond paragraph here\n\n\nthird",
		PageMap: models.PageMap{
			{Number: 1, Start: 0, End: len("first paragraph here\n\nsecond paragraph here\n\n\nthird")},
		},
	}
	chunks := SplitChunks(doc)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	want := []string{"first paragraph here", "second paragraph here", "third"}
	for i, w := range want {
		if chunks[i].Text != w {
			t.Errorf("chunk %d text = %q, want %q", i, chunks[i].Text, w)
		}
		if doc.Text[chunks[i].Start:chunks[i].End] != w {
			t.Errorf("chunk %d offsets do not slice back to its text", i)
		}
	}
}

func TestSplitChunksPageTagging(t *testing.T) {
	// Two paragraphs, the page boundary between them.
	page1 := "paragraph on the first page\n"
	page2 := "\nparagraph on the second page"
	doc := &models.Document{
		Path: "a.pdf",
		Text: page1 + page2,
		PageMap: models.PageMap{
			{Number: 1, Start: 0, End: len(page1)},
			{Number: 2, Start: len(page1), End: len(page1) + len(page2)},
		},
	}
	chunks := SplitChunks(doc)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Page != 1 {
		t.Errorf("first chunk page = %d, want 1", chunks[0].Page)
	}
	if chunks[1].Page != 2 {
		t.Errorf("second chunk page = %d, want 2", chunks[1].Page)
	}
}

func TestSplitChunksDropsEmpty(t *testing.T) {
	doc := &models.Document{Text: "\n\n   \n\nonly real chunk\n\n \t \n\n"}
	chunks := SplitChunks(doc)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "only real chunk" {
		t.Errorf("chunk text = %q", chunks[0].Text)
	}
}

func TestSplitChunksEmptyDocument(t *testing.T) {
	if chunks := SplitChunks(&models.Document{Text: ""}); chunks != nil {
		t.Errorf("empty document should yield no chunks, got %v", chunks)
	}
	if chunks := SplitChunks(&models.Document{Text: " \n \n "}); chunks != nil {
		t.Errorf("blank document should yield no chunks, got %v", chunks)
	}
}

func TestSplitChunksSingleParagraph(t *testing.T) {
	text := "no blank lines\njust wrapped text"
	doc := &models.Document{
		Text:    text,
		PageMap: models.PageMap{{Number: 1, Start: 0, End: len(text)}},
	}
	chunks := SplitChunks(doc)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
}
