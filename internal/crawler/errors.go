package crawler

import "errors"

var (
	// ErrRuntimeExceeded aborts the run when the wall-clock limit passes.
	// The frontier stays resumable.
	ErrRuntimeExceeded = errors.New("maximum runtime exceeded")

	// ErrTooManyFailures aborts the run after an unbroken streak of page
	// failures. A streak this long means the site or the network is down.
	ErrTooManyFailures = errors.New("too many consecutive page failures")
)
