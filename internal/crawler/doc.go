// Package crawler orchestrates a full mirror run as a sequence of phases:
// discover, scrape-pages, download-images, retry-failed, generate-index,
// resolve-links, and lint.
//
// Every phase reads its work from the persistent frontier and writes its
// results back, so the run can be interrupted in any phase and resumed.
// The scrape and image phases fan work out to a bounded worker pool; the
// rate limiter, circuit breaker, and health monitor throttle and guard the
// pool as a whole.
package crawler
