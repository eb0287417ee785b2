// Package scan drives corpus-wide similarity scans: file enumeration,
// concurrent tokenize+score, progress reporting, cancellation, and ranking.
package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dannythedev/file-archive-overlap-finder/internal/corpus"
	"github.com/dannythedev/file-archive-overlap-finder/internal/loader"
	"github.com/dannythedev/file-archive-overlap-finder/internal/models"
	"github.com/dannythedev/file-archive-overlap-finder/internal/similarity"
	"github.com/dannythedev/file-archive-overlap-finder/pkg/utils"
)

// Options configures a scan session. Zero values fall back to defaults:
// threshold 5.0 and one worker per CPU. The worker count is fixed for the
// whole session to bound resource use.
type Options struct {
	Threshold float64
	Workers   int
}

// Session is one similarity scan of a corpus root against a reference file.
// It owns the corpus index, configuration, and cancellation for its lifetime;
// everything except the final report is discarded when the session is dropped.
//
// State machine: Idle -> Scanning -> Completed | Cancelled | Failed.
type Session struct {
	id        string
	root      string
	reference string
	opts      Options
	loader    *loader.Loader
	index     *corpus.Index
	logger    *zap.Logger // optional; when set, logs debug events

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	status   models.ScanStatus
	progress models.Progress
	report   *models.ScanReport
	err      error
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets a logger for debug output (enumeration, per-file failures).
func WithLogger(l *zap.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession creates a session scanning root against reference.
func NewSession(l *loader.Loader, root, reference string, opts Options, sopts ...SessionOption) *Session {
	if opts.Threshold == 0 {
		opts.Threshold = similarity.DefaultThreshold
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:        uuid.New().String(),
		root:      root,
		reference: reference,
		opts:      opts,
		loader:    l,
		index:     corpus.NewIndex(l),
		ctx:       ctx,
		cancel:    cancel,
		status:    models.ScanIdle,
	}
	for _, opt := range sopts {
		opt(s)
	}
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Root returns the corpus root being scanned.
func (s *Session) Root() string { return s.root }

// Reference returns the reference file path.
func (s *Session) Reference() string { return s.reference }

// Index returns the session's corpus index, for cache eviction by a watcher.
func (s *Session) Index() *corpus.Index { return s.index }

// Status returns the session's current state.
func (s *Session) Status() models.ScanStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Progress returns the most recent progress snapshot.
func (s *Session) Progress() models.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Report returns the final report, or nil while the scan is still running.
func (s *Session) Report() *models.ScanReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// Err returns the fatal error for a Failed session, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel requests cooperative cancellation. Workers observe it between units
// of work; results computed so far are kept and the session transitions to
// Cancelled. Safe to call multiple times and from any goroutine.
func (s *Session) Cancel() {
	s.cancel()
}

func (s *Session) cancelled() bool {
	return s.ctx.Err() != nil
}

func (s *Session) setStatus(st models.ScanStatus) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// enumerate validates the corpus root and collects all supported files under
// it, excluding the reference file itself.
func (s *Session) enumerate() ([]string, error) {
	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		return nil, &ConfigurationError{Reason: "corpus root", Err: err}
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, &ConfigurationError{Reason: "corpus root", Err: err}
	}
	if !info.IsDir() {
		return nil, &ConfigurationError{Reason: "corpus root is not a directory: " + absRoot}
	}
	refAbs, err := filepath.Abs(s.reference)
	if err != nil {
		return nil, &ConfigurationError{Reason: "reference file", Err: err}
	}

	var files []string
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			// Unreadable subtrees are skipped; per-file problems surface
			// later as recorded failures, not scan aborts.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !s.loader.Supported(strings.ToLower(filepath.Ext(path))) {
			return nil
		}
		if abs, absErr := filepath.Abs(path); absErr == nil && abs == refAbs {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		return nil, &ConfigurationError{Reason: "corpus root", Err: walkErr}
	}
	return files, nil
}

type outcome struct {
	path  string
	score float64
	err   error
}

// Run executes the scan and blocks until it completes, is cancelled, or fails.
// sink may be nil. The returned report is also available via Report().
func (s *Session) Run(sink ProgressSink) (*models.ScanReport, error) {
	report := &models.ScanReport{Root: s.root, Reference: s.reference}

	files, err := s.enumerate()
	if err != nil {
		s.fail(err)
		return nil, err
	}
	refTokens, err := s.index.TokenSet(s.ctx, s.reference)
	if err != nil {
		cfgErr := &ConfigurationError{Reason: "reference file", Err: err}
		s.fail(cfgErr)
		return nil, cfgErr
	}
	s.setStatus(models.ScanScanning)
	if s.logger != nil {
		s.logger.Debug("scan starting",
			zap.String("id", s.id),
			zap.String("root", s.root),
			zap.Int("files", len(files)),
			zap.Int("workers", s.opts.Workers),
			zap.Float64("threshold", s.opts.Threshold),
		)
	}

	paths := make(chan string)
	// Bounded handoff: a worker parks on this channel at worst, never on the sink.
	outcomes := make(chan outcome, s.opts.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				if s.cancelled() {
					return
				}
				ts, err := s.index.TokenSet(s.ctx, path)
				if err != nil {
					// Cancellation is not a per-file failure.
					if s.cancelled() {
						return
					}
					outcomes <- outcome{path: path, err: err}
					continue
				}
				outcomes <- outcome{path: path, score: similarity.Jaccard(refTokens.Tokens, ts.Tokens)}
			}
		}()
	}

	go func() {
		defer close(paths)
		for _, f := range files {
			select {
			case paths <- f:
			case <-s.ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	total := len(files)
	processed := 0
	for out := range outcomes {
		processed++
		prog := models.Progress{Processed: processed, Total: total, CurrentFile: filepath.Base(out.path)}
		s.mu.Lock()
		s.progress = prog
		s.mu.Unlock()
		if sink != nil {
			sink.Report(prog)
		}
		if out.err != nil {
			if s.logger != nil {
				s.logger.Debug("file skipped", zap.String("path", out.path), zap.Error(out.err))
			}
			report.Failures = append(report.Failures, models.FileFailure{Path: out.path, Error: out.err.Error()})
			continue
		}
		if out.score >= s.opts.Threshold {
			report.Results = append(report.Results, &models.ScoreResult{
				Path:      out.path,
				Directory: filepath.Dir(out.path),
				FileName:  filepath.Base(out.path),
				Score:     utils.Round1(out.score),
			})
		}
	}

	rankResults(report.Results)
	if s.cancelled() {
		report.Status = models.ScanCancelled
	} else {
		report.Status = models.ScanCompleted
	}
	s.mu.Lock()
	s.status = report.Status
	s.report = report
	s.mu.Unlock()
	if s.logger != nil {
		s.logger.Debug("scan finished",
			zap.String("id", s.id),
			zap.String("status", string(report.Status)),
			zap.Int("results", len(report.Results)),
			zap.Int("failures", len(report.Failures)),
		)
	}
	return report, nil
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.status = models.ScanFailed
	s.err = err
	s.mu.Unlock()
}

// rankResults sorts results by score descending, ties broken by path
// ascending for determinism, then assigns 1-based ranks.
func rankResults(results []*models.ScoreResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Path < results[j].Path
	})
	for i, r := range results {
		r.Rank = i + 1
	}
}
