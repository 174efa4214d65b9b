// Package extract turns fetched HTML into markdown content, navigation
// hints, and discovered links.
//
// Extraction finds the main content region of a documentation page,
// strips navigation chrome, and converts the remaining HTML to markdown.
// Link discovery walks the whole document, resolves relative URLs against
// the page URL, and normalizes the results (fragments dropped, tracking
// parameters removed) so the frontier sees one canonical form per page.
package extract
