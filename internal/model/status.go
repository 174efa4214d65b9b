package model

// PageStatus represents the lifecycle state of a discovered page.
//
// A page is created pending at discovery, moves to in_progress when a
// worker claims it, and ends in one of the terminal states. A failed page
// may be reset back to pending for a bounded number of retries.
type PageStatus string

// Page lifecycle states.
const (
	// StatusPending means the page has been discovered but not yet fetched.
	StatusPending PageStatus = "pending"

	// StatusInProgress means a worker currently holds the page.
	// At most one worker holds a given URL in this state at a time.
	StatusInProgress PageStatus = "in_progress"

	// StatusCompleted means the page was fetched and written to disk.
	StatusCompleted PageStatus = "completed"

	// StatusFailed means the last fetch attempt failed. The page remains
	// eligible for a later retry phase until its retry count is exhausted.
	StatusFailed PageStatus = "failed"

	// StatusSkipped means the page was intentionally not fetched
	// (page budget reached, depth cutoff, and similar).
	StatusSkipped PageStatus = "skipped"
)

// String returns the status as stored in the frontier database.
func (s PageStatus) String() string {
	return string(s)
}

// Valid reports whether s is one of the known lifecycle states.
func (s PageStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// Terminal reports whether s is a terminal state. A terminal page is never
// claimed again within a run (failed pages re-enter via an explicit reset).
func (s PageStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusSkipped:
		return true
	}
	return false
}
