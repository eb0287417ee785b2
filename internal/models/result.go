package models

// ScanStatus is the lifecycle state of a scan session.
type ScanStatus string

const (
	// ScanIdle means the session has been created but not started.
	ScanIdle ScanStatus = "idle"
	// ScanScanning means the session is processing corpus files.
	ScanScanning ScanStatus = "scanning"
	// ScanCompleted means all files were processed.
	ScanCompleted ScanStatus = "completed"
	// ScanCancelled means the session was cancelled; partial results are kept.
	ScanCancelled ScanStatus = "cancelled"
	// ScanFailed means the session could not run (e.g. invalid corpus root).
	ScanFailed ScanStatus = "failed"
)

// ScoreResult is one corpus file's overlap score against the reference.
// Immutable once created; the ranked collection is rebuilt at scan completion.
type ScoreResult struct {
	Path      string  `json:"path"`
	Directory string  `json:"directory"`
	FileName  string  `json:"file_name"`
	Score     float64 `json:"score"`
	Rank      int     `json:"rank"`
}

// FileFailure records a per-file load or tokenize failure. Failures do not
// abort a scan; the file is simply excluded from the results.
type FileFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Progress is one scan progress notification, emitted after each file
// finishes (including failed files).
type Progress struct {
	Processed   int    `json:"processed"`
	Total       int    `json:"total"`
	CurrentFile string `json:"current_file"`
}

// Percent returns completion as an integer percentage in [0,100].
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return p.Processed * 100 / p.Total
}

// ScanReport is the outcome of one scan session: the ranked results above
// threshold plus the recorded per-file failures.
type ScanReport struct {
	Root      string         `json:"root"`
	Reference string         `json:"reference"`
	Status    ScanStatus     `json:"status"`
	Results   []*ScoreResult `json:"results"`
	Failures  []FileFailure  `json:"failures,omitempty"`
}
