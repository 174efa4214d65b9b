package writer

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/docmirror/docmirror/internal/model"
)

// IndexFile is the table of contents written at the output root.
const IndexFile = "index.md"

// WriteIndex generates the table of contents from completed pages and
// writes it at the output root. Only docs/ pages are listed; resource
// pages are reference material, not reading order.
//
// Directories become headings, nested one level per path segment and
// capped at H6. Pages are wiki links without the .md extension.
func (w *Writer) WriteIndex(pages []*model.PageRecord) error {
	byDir := make(map[string][]*model.PageRecord)
	var dirs []string

	for _, page := range pages {
		file := strings.TrimPrefix(page.FilePath, "./")
		if !strings.HasPrefix(file, DocsDir+"/") {
			continue
		}
		dir := file[:strings.LastIndexByte(file, '/')]
		if _, seen := byDir[dir]; !seen {
			dirs = append(dirs, dir)
		}
		byDir[dir] = append(byDir[dir], page)
	}
	sort.Strings(dirs)

	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)
	md.H1("Table of Contents")
	md.PlainText("")

	total := 0
	for _, dir := range dirs {
		writeDirHeading(md, dir)

		entries := byDir[dir]
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].FilePath < entries[j].FilePath
		})

		var lines []string
		for _, page := range entries {
			ref := strings.TrimSuffix(page.FilePath, ".md")
			label := page.Title
			if label == "" {
				label = refName(ref)
			}
			lines = append(lines, fmt.Sprintf("[[%s|%s]]", ref, label))
			total++
		}
		md.BulletList(lines...)
		md.PlainText("")
	}

	md.HorizontalRule()
	md.PlainTextf("Total pages: %d", total)

	if err := md.Build(); err != nil {
		return fmt.Errorf("failed to build index markdown: %w", err)
	}

	_, err := w.Save(IndexFile, buf.String())
	return err
}

// writeDirHeading emits a heading for a directory at a level matching its
// depth: docs itself is H2, each nested segment adds one, capped at H6.
func writeDirHeading(md *markdown.Markdown, dir string) {
	segments := strings.Split(dir, "/")
	level := len(segments) + 1
	if level > 6 {
		level = 6
	}
	name := segments[len(segments)-1]

	switch level {
	case 2:
		md.H2(name)
	case 3:
		md.H3(name)
	case 4:
		md.H4(name)
	case 5:
		md.H5(name)
	default:
		md.H6(name)
	}
}

func refName(ref string) string {
	if idx := strings.LastIndexByte(ref, '/'); idx >= 0 {
		return ref[idx+1:]
	}
	return ref
}
