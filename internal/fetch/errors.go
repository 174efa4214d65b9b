package fetch

import "errors"

var (
	// ErrNotFound is returned for 404 and 410 responses. Retrying these is
	// pointless, so callers treat it as permanent.
	ErrNotFound = errors.New("page not found")

	// ErrServerError is returned for 5xx responses. These are usually
	// transient and worth retrying.
	ErrServerError = errors.New("server error")

	// ErrTooManyRequests is returned for 429 responses. The site is
	// telling us to slow down; retry after backoff.
	ErrTooManyRequests = errors.New("rate limited by server")

	// ErrNotHTML is returned when the response is not an HTML document.
	ErrNotHTML = errors.New("response is not HTML")

	// ErrContentTooSmall is returned when the body is implausibly small
	// for a documentation page, usually a loading shell or an error page
	// served with status 200.
	ErrContentTooSmall = errors.New("page content too small")

	// ErrBodyTooLarge is returned when the body exceeds the size cap.
	ErrBodyTooLarge = errors.New("page body exceeds size limit")
)
