package model

import "time"

// PageRecord is the frontier's durable record of one discovered URL.
//
// Design decision: the record mirrors the pages table column for column
// rather than wrapping sql.Null types. Nullable columns (FilePath,
// ErrorMessage, ParentURL) use the empty string as absence; the frontier
// translates at the scan boundary. This keeps every consumer free of
// database types.
type PageRecord struct {
	// URL is the normalized page URL and the unique key.
	URL string

	// Status is the page's lifecycle state.
	Status PageStatus

	// Title is the extracted page title, if known.
	Title string

	// ContentHash is the md5 hex digest of the saved markdown, used only
	// for change detection. Empty until the page completes.
	ContentHash string

	// FilePath is the output file path relative to the output root.
	// Set on completion; a redirect duplicate points at the canonical file.
	FilePath string

	// ErrorMessage holds the last failure message, if any.
	ErrorMessage string

	// RetryCount is incremented on every failure. It tracks retries across
	// orchestrator phases, not attempts within a single fetch call.
	RetryCount int

	// CrawlDepth is the link distance from the discovery seed.
	// Fixed at first discovery and never overwritten.
	CrawlDepth int

	// ParentURL is the page on which this URL was first discovered.
	ParentURL string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt time.Time
}

// ImageRecord is the frontier's record of one discovered image URL.
type ImageRecord struct {
	// URL is the image URL and the unique key.
	URL string

	// PageURL is the page that referenced the image.
	PageURL string

	// LocalPath is the downloaded file path relative to the output root.
	LocalPath string

	// Downloaded reports whether the image was fetched successfully.
	Downloaded bool

	// ErrorMessage holds the download failure, if any. A non-empty message
	// with Downloaded=false marks the image as failed rather than pending.
	ErrorMessage string

	CreatedAt time.Time
}

// RunRecord describes one crawler invocation. Runs are append-only and used
// for reporting; they carry no crawl state.
type RunRecord struct {
	// ID is the autoincrement database key.
	ID int64

	// UUID identifies the run in logs and reports.
	UUID string

	StartedAt   time.Time
	CompletedAt time.Time

	PagesTotal       int
	PagesCompleted   int
	PagesFailed      int
	ImagesTotal      int
	ImagesDownloaded int
}

// Statistics aggregates frontier counts for reporting.
type Statistics struct {
	Pages  PageStats
	Images ImageStats
}

// PageStats holds per-status page counts.
type PageStats struct {
	Total      int
	Completed  int
	Failed     int
	Pending    int
	InProgress int
}

// ImageStats holds image download counts.
type ImageStats struct {
	Total      int
	Downloaded int
	Failed     int
}
