// Package resolver rewrites absolute documentation URLs in generated
// markdown into local wiki-style references.
//
// During scraping the resolver accumulates a mapping from page URL to
// output file and from page title to filename, plus the redirects observed
// by the fetcher. The resolve-links phase then walks every generated file
// and converts [text](url) links into [[relative/path|text]] references,
// falling back to title lookup and slug conversion for URLs that were
// never crawled.
//
// The mapping can be rebuilt from the frontier at any time, so a resumed
// run fixes links for pages scraped by earlier runs too.
package resolver
