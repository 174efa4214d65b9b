package report

import (
	"time"

	"github.com/docmirror/docmirror/internal/model"
)

// Summary is everything the end-of-run report shows.
type Summary struct {
	// BaseURL is the mirrored documentation root.
	BaseURL string

	// OutputDir is where the mirror was written.
	OutputDir string

	// Started and Finished bound the run.
	Started  time.Time
	Finished time.Time

	// Stats are the final frontier counters.
	Stats model.Statistics

	// FailedPages lists pages that exhausted their retries.
	FailedPages []*model.PageRecord

	// Warnings are health warnings collected during the run.
	Warnings []string

	// DryRun marks a run that wrote no images, links, or lint fixes.
	DryRun bool
}

// Duration returns the wall-clock run time.
func (s *Summary) Duration() time.Duration {
	return s.Finished.Sub(s.Started).Round(time.Second)
}

// Writer renders a run summary.
//
// Design decision: We use an interface to allow different output formats
// and destinations, so the same summary can go to the terminal and to a
// report file in one run.
type Writer interface {
	// Write outputs the summary to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(summary *Summary) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers. Returns the total
// bytes written; stops on the first error encountered.
func (m *MultiWriter) Write(summary *Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
