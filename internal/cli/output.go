// Package cli provides CLI output writers for scan and compare results.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dannythedev/file-archive-overlap-finder/internal/models"
)

// OutputFormat is the format for result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a format string from a CLI flag.
func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteScanReport writes a scan report to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteScanReport(w io.Writer, report *models.ScanReport, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	writeScanReportText(w, report)
	return nil
}

func writeScanReportText(w io.Writer, report *models.ScanReport) {
	fmt.Fprintf(w, "\nScan of %s against %s (%s)\n", report.Root, report.Reference, report.Status)
	if len(report.Results) == 0 {
		fmt.Fprintln(w, "No files above threshold.")
	} else {
		fmt.Fprintf(w, "%d file(s) above threshold:\n\n", len(report.Results))
		for _, r := range report.Results {
			fmt.Fprintf(w, "%4d. %6.1f%%  %s\n", r.Rank, r.Score, r.Path)
		}
	}
	if len(report.Failures) > 0 {
		fmt.Fprintf(w, "\n%d file(s) skipped:\n", len(report.Failures))
		for _, f := range report.Failures {
			fmt.Fprintf(w, "  %s: %s\n", f.Path, f.Error)
		}
	}
	fmt.Fprintln(w)
}

// WriteStructuralReport writes a page-aligned comparison to w in the given format.
func WriteStructuralReport(w io.Writer, report *models.StructuralReport, format OutputFormat) error {
	rows := report.Rows()
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"reference":  report.RefPath,
			"target":     report.TargetPath,
			"alignments": rows,
		})
	}
	writeStructuralReportText(w, report, rows)
	return nil
}

func writeStructuralReportText(w io.Writer, report *models.StructuralReport, rows []models.AlignmentRow) {
	fmt.Fprintf(w, "\nComparing %s against %s\n", report.TargetPath, report.RefPath)
	if len(rows) == 0 {
		fmt.Fprintln(w, "No paragraphs to align.")
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintf(w, "%d paragraph alignment(s):\n\n", len(rows))
	for _, row := range rows {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Page %d -> page %d | Similarity: %.1f%%\n", row.RefPage, row.TargetPage, row.Score)
		fmt.Fprintf(w, "%s\n", row.Preview)
	}
	fmt.Fprintln(w)
}
