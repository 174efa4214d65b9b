package config

import "errors"

// Configuration validation errors returned by Config.Validate.
//
// Design decision: package-level sentinel errors rather than fmt.Errorf in
// Validate, so callers can branch with errors.Is while still getting a
// human-readable message.
var (
	// ErrNoBaseURL is returned when no documentation base URL is provided
	// via flag, environment variable, or config file.
	ErrNoBaseURL = errors.New("no base URL specified: pass one as an argument or set DOCMIRROR_BASE_URL")

	// ErrInvalidBaseURL is returned when the base URL is not an absolute
	// http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http or https URL")

	// ErrInvalidWorkers is returned when the worker count is outside 1..50.
	ErrInvalidWorkers = errors.New("invalid worker count: must be between 1 and 50")

	// ErrInvalidDelay is returned when the request delay is outside the
	// accepted range. Very small delays hammer the target; use at least 100ms.
	ErrInvalidDelay = errors.New("invalid request delay: must be between 100ms and 60s")

	// ErrInvalidMaxRetries is returned when the per-page retry ceiling is
	// negative or absurdly large.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be between 0 and 10")

	// ErrInvalidMaxDepth is returned when the crawl depth cap exceeds the
	// safety ceiling. Deep crawls of a documentation site usually mean the
	// domain restriction is misconfigured.
	ErrInvalidMaxDepth = errors.New("invalid max crawl depth: must be between 0 and 10")

	// ErrInvalidConsecutiveFailures is returned when the fatal
	// consecutive-failure ceiling is below the minimum useful value.
	ErrInvalidConsecutiveFailures = errors.New("invalid max consecutive failures: must be at least 5")

	// ErrInvalidDomainRestriction is returned for an unknown restriction mode.
	ErrInvalidDomainRestriction = errors.New(`invalid domain restriction: must be "off", "host", or "root"`)
)
