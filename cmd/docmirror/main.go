// Package main provides the entry point for the docmirror CLI.
//
// docmirror mirrors a documentation website into a tree of markdown files
// with a table of contents and rewritten internal links. Crawl progress is
// persisted, so an interrupted run can be resumed without refetching.
//
// Usage:
//
//	docmirror mirror https://support.example.com/product
//	docmirror mirror --resume https://support.example.com/product
//	docmirror status
//
// See --help for all available options.
package main

// main is the entry point for docmirror.
func main() {
	Execute()
}
