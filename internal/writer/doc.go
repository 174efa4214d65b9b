// Package writer places extracted pages in the output tree and writes
// their markdown atomically.
//
// File placement prefers the page's navigation structure: breadcrumb
// directories, the sidebar section as the containing folder, and the
// navigation title as the filename. Pages without usable hints fall back
// to a filename derived from the URL slug. Section index pages become
// index.md inside their section directory.
//
// Writes go through a temp file, fsync, and rename, so a crash mid-write
// never leaves a half-written page that a resumed run would trust.
package writer
