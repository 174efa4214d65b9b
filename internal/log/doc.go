// Package log provides phase-aware logging for the crawler, built on top
// of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic tagging of every record with the active crawl phase
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// The crawl phase travels in the context, so deeply nested code (the
// fetcher, the frontier, the retry loop) logs with the right phase without
// threading a logger or phase name through every call.
//
// # Usage
//
//	logger := log.NewPhaseLogger(os.Stderr, true) // verbose=true
//	ctx := log.WithPhase(ctx, "scrape-pages")
//
//	logger.InfoContext(ctx, "page completed",
//	    "url", "https://support.example.com/product/docs/intro",
//	)
//	// => ... phase=scrape-pages url=https://...
package log
