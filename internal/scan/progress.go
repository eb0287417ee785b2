package scan

import "github.com/dannythedev/file-archive-overlap-finder/internal/models"

// ProgressSink receives a notification after each corpus file finishes,
// including files that failed. Sinks are invoked from the session's collector
// goroutine, never from workers, so a slow sink cannot stall the pool beyond
// the bounded handoff channel.
type ProgressSink interface {
	Report(p models.Progress)
}

// ProgressFunc adapts a function to a ProgressSink.
type ProgressFunc func(models.Progress)

// Report calls f(p).
func (f ProgressFunc) Report(p models.Progress) { f(p) }
