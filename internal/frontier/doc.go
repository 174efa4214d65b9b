// Package frontier provides SQLite-based persistent storage for the crawl
// frontier: the set of discovered pages, their lifecycle status, pending
// image downloads, and run history.
//
// Every state transition is written to the database before the crawler acts
// on it, so a crash or interruption at any point leaves a frontier that the
// next run can resume from. The page lifecycle is:
//
//	pending -> in_progress -> completed
//	                       -> failed  (retryable until the retry ceiling)
//	                       -> skipped (terminal, page limit reached)
//
// Claiming a page is an atomic compare-and-swap on its status, so a pool of
// workers sharing one Store never processes the same page twice.
package frontier
