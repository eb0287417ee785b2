package structural

import (
	"context"

	"go.uber.org/zap"

	"github.com/dannythedev/file-archive-overlap-finder/internal/loader"
	"github.com/dannythedev/file-archive-overlap-finder/internal/models"
)

// Aligner computes the structural alignment of one reference/target pair.
// It is invoked on demand for an already-scored pair, never across the corpus.
type Aligner struct {
	loader *loader.Loader
	logger *zap.Logger // optional; when set, logs debug events
}

// AlignerOption configures an Aligner.
type AlignerOption func(*Aligner)

// WithLogger sets a logger for debug output (chunk counts, timings).
func WithLogger(l *zap.Logger) AlignerOption {
	return func(a *Aligner) { a.logger = l }
}

// NewAligner creates an aligner backed by the given loader.
func NewAligner(l *loader.Loader, opts ...AlignerOption) *Aligner {
	a := &Aligner{loader: l}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Compare loads both documents and aligns them. Load failures surface as the
// loader's typed errors and leave no other state behind.
func (a *Aligner) Compare(ctx context.Context, refPath, targetPath string) (*models.StructuralReport, error) {
	ref, err := a.loader.Load(refPath)
	if err != nil {
		return nil, err
	}
	target, err := a.loader.Load(targetPath)
	if err != nil {
		return nil, err
	}
	return a.CompareDocuments(ctx, ref, target)
}

// CompareDocuments chunks both documents and, for every reference chunk,
// selects the target chunk maximizing the sequence-similarity ratio. The
// search is exhaustive, O(Nref x Ntarget); output preserves reference chunk
// order and contains exactly one alignment per non-empty reference chunk.
// An empty reference or target yields an empty report.
func (a *Aligner) CompareDocuments(ctx context.Context, ref, target *models.Document) (*models.StructuralReport, error) {
	report := &models.StructuralReport{RefPath: ref.Path, TargetPath: target.Path}
	refChunks := SplitChunks(ref)
	targetChunks := SplitChunks(target)
	if a.logger != nil {
		a.logger.Debug("structural compare",
			zap.String("ref", ref.Path),
			zap.String("target", target.Path),
			zap.Int("ref_chunks", len(refChunks)),
			zap.Int("target_chunks", len(targetChunks)),
		)
	}
	if len(refChunks) == 0 || len(targetChunks) == 0 {
		return report, nil
	}

	normTarget := make([]string, len(targetChunks))
	for i, tc := range targetChunks {
		normTarget[i] = normalizeChunk(tc.Text)
	}

	report.Alignments = make([]models.ChunkAlignment, 0, len(refChunks))
	for _, rc := range refChunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		normRef := normalizeChunk(rc.Text)
		best := 0
		bestScore := -1.0
		for i := range targetChunks {
			if score := Ratio(normRef, normTarget[i]); score > bestScore {
				bestScore = score
				best = i
			}
		}
		report.Alignments = append(report.Alignments, models.ChunkAlignment{
			Ref:    rc,
			Target: targetChunks[best],
			Score:  bestScore * 100,
		})
	}
	return report, nil
}
