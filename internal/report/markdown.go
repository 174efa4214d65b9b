package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
)

// MarkdownWriter renders the summary as a markdown crawl report.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. Consistent formatting with the generated documentation mirror
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write outputs the full summary in Markdown format.
func (w *MarkdownWriter) Write(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", summary.BaseURL},
			{"Started", summary.Started.Format("2006-01-02 15:04:05 MST")},
			{"Duration", summary.Duration().String()},
			{"Output", "`" + summary.OutputDir + "`"},
			{"Dry run", strconv.FormatBool(summary.DryRun)},
		},
	})
	md.PlainText("")

	md.H2("Pages")
	p := summary.Stats.Pages
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows: [][]string{
			{"Completed", strconv.Itoa(p.Completed)},
			{"Failed", strconv.Itoa(p.Failed)},
			{"Pending", strconv.Itoa(p.Pending)},
			{"Total", strconv.Itoa(p.Total)},
		},
	})
	md.PlainText("")

	md.H2("Images")
	i := summary.Stats.Images
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows: [][]string{
			{"Downloaded", strconv.Itoa(i.Downloaded)},
			{"Failed", strconv.Itoa(i.Failed)},
			{"Total", strconv.Itoa(i.Total)},
		},
	})

	if len(summary.FailedPages) > 0 {
		md.PlainText("")
		md.H2("Failed Pages")
		rows := make([][]string, 0, len(summary.FailedPages))
		for _, page := range summary.FailedPages {
			rows = append(rows, []string{page.URL, strconv.Itoa(page.RetryCount), page.ErrorMessage})
		}
		md.Table(markdown.TableSet{
			Header: []string{"URL", "Attempts", "Last Error"},
			Rows:   rows,
		})
	}

	if len(summary.Warnings) > 0 {
		md.PlainText("")
		md.H2("Health Warnings")
		md.BulletList(summary.Warnings...)
	}

	return len(md.String()), md.Build()
}
