// Package lint cleans up generated markdown after the crawl.
//
// HTML-to-markdown conversion leaves mechanical artifacts: trailing
// whitespace, stacked blank lines, missing final newlines, and heading
// levels that jump. The linter finds these and fixes them in place. A
// second pass over fixed files reports nothing, so the phase is safe to
// re-run on resume.
package lint
