// Package history provides optional persistence of finished scans for later
// inspection and export. Only final reports are stored; token sets and other
// session state are never persisted, so past scans cannot influence future
// scoring.
package history

import (
	"context"
	"time"

	"github.com/dannythedev/file-archive-overlap-finder/internal/models"
)

// ScanRecord is one finished scan: its configuration, outcome, and ranked results.
type ScanRecord struct {
	ID         string                `json:"id"`
	Root       string                `json:"root"`
	Reference  string                `json:"reference"`
	Status     models.ScanStatus     `json:"status"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Failures   int                   `json:"failures"`
	Results    []*models.ScoreResult `json:"results,omitempty"`
}

// Store persists finished scans.
type Store interface {
	SaveScan(ctx context.Context, rec *ScanRecord) error
	// GetScan returns a scan with its results, ordered by rank.
	GetScan(ctx context.Context, id string) (*ScanRecord, error)
	// ListScans returns up to limit scan summaries (no results), newest first.
	ListScans(ctx context.Context, limit int) ([]*ScanRecord, error)
	Close() error
}
