package report

import (
	"fmt"
	"io"
	"strings"
)

// maxFailedShown caps the failed-page list in the terminal summary.
const maxFailedShown = 10

// TextWriter renders the summary for the terminal.
type TextWriter struct {
	output io.Writer
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{output: output}
}

// Write outputs the summary as plain text.
func (w *TextWriter) Write(summary *Summary) (int, error) {
	var sb strings.Builder

	title := "Crawl complete"
	if summary.DryRun {
		title = "Dry run complete"
	}
	fmt.Fprintf(&sb, "%s: %s\n", title, summary.BaseURL)
	fmt.Fprintf(&sb, "Duration: %s\n", summary.Duration())
	fmt.Fprintf(&sb, "Output:   %s\n\n", summary.OutputDir)

	p := summary.Stats.Pages
	fmt.Fprintf(&sb, "Pages:  %d total, %d completed, %d failed, %d pending\n",
		p.Total, p.Completed, p.Failed, p.Pending)

	i := summary.Stats.Images
	fmt.Fprintf(&sb, "Images: %d total, %d downloaded, %d failed\n",
		i.Total, i.Downloaded, i.Failed)

	if len(summary.FailedPages) > 0 {
		sb.WriteString("\nFailed pages:\n")
		shown := summary.FailedPages
		if len(shown) > maxFailedShown {
			shown = shown[:maxFailedShown]
		}
		for _, page := range shown {
			fmt.Fprintf(&sb, "  %s (%d attempts): %s\n", page.URL, page.RetryCount, page.ErrorMessage)
		}
		if rest := len(summary.FailedPages) - len(shown); rest > 0 {
			fmt.Fprintf(&sb, "  ... and %d more\n", rest)
		}
	}

	if len(summary.Warnings) > 0 {
		sb.WriteString("\nHealth warnings:\n")
		for _, warning := range summary.Warnings {
			fmt.Fprintf(&sb, "  %s\n", warning)
		}
	}

	return w.output.Write([]byte(sb.String()))
}
