package models

import (
	"strings"

	"github.com/dannythedev/file-archive-overlap-finder/pkg/utils"
)

// Chunk is a paragraph-level segment of a document's extracted text, tagged
// with the page containing its start offset.
type Chunk struct {
	Text  string `json:"text"`
	Page  int    `json:"page"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// ChunkAlignment pairs one reference chunk with the target chunk that
// maximizes the sequence-similarity ratio. Score is a percentage in [0,100].
type ChunkAlignment struct {
	Ref    Chunk   `json:"ref"`
	Target Chunk   `json:"target"`
	Score  float64 `json:"score"`
}

// StructuralReport is the chunk-by-chunk alignment of a reference document
// against a target. Alignments follow reference chunk order and contain
// exactly one entry per non-empty reference chunk; the report is empty when
// either document has no chunks.
type StructuralReport struct {
	RefPath    string           `json:"ref_path"`
	TargetPath string           `json:"target_path"`
	Alignments []ChunkAlignment `json:"alignments"`
}

// AlignmentRow is the consumer-facing view of one alignment, for export and
// navigation (e.g. jumping a viewer to the matched pages).
type AlignmentRow struct {
	RefPage    int     `json:"ref_page"`
	TargetPage int     `json:"target_page"`
	Score      float64 `json:"score"`
	Preview    string  `json:"preview"`
}

const previewLen = 100

// Rows returns the report as AlignmentRows, in reference chunk order.
// Preview is the start of the reference chunk with newlines collapsed.
func (r *StructuralReport) Rows() []AlignmentRow {
	rows := make([]AlignmentRow, 0, len(r.Alignments))
	for _, a := range r.Alignments {
		preview := strings.Join(strings.Fields(a.Ref.Text), " ")
		if len(preview) > previewLen {
			preview = preview[:previewLen] + "..."
		}
		rows = append(rows, AlignmentRow{
			RefPage:    a.Ref.Page,
			TargetPage: a.Target.Page,
			Score:      utils.Round1(a.Score),
			Preview:    preview,
		})
	}
	return rows
}
