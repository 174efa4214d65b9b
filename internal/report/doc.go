// Package report renders the end-of-run summary in text and markdown.
//
// The text writer targets the terminal; the markdown writer produces a
// shareable crawl report saved next to the mirrored documentation.
package report
