package frontier

import "errors"

var (
	// ErrNotClaimable is returned by Claim when the page is not in a
	// claimable status, usually because another worker claimed it first
	// or it already completed.
	ErrNotClaimable = errors.New("page is not claimable")

	// ErrPageNotFound is returned when a URL has no row in the frontier.
	ErrPageNotFound = errors.New("page not found in frontier")

	// ErrRunNotFound is returned when a run ID has no row in the runs table.
	ErrRunNotFound = errors.New("run not found")
)
