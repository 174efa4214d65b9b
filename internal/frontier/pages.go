package frontier

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/docmirror/docmirror/internal/model"
)

// AddPage inserts a discovered URL into the frontier as pending. Re-adding
// a known URL is a no-op: the original crawl depth, parent, and status are
// kept, so rediscovering a page through a deeper path never demotes it.
func (s *Store) AddPage(ctx context.Context, url string, depth int, parentURL string) error {
	query := `
	INSERT OR IGNORE INTO pages (url, status, crawl_depth, parent_url)
	VALUES (?, ?, ?, NULLIF(?, ''))
	`

	if _, err := s.db.ExecContext(ctx, query, url, model.StatusPending, depth, parentURL); err != nil {
		return fmt.Errorf("failed to add page %s: %w", url, err)
	}
	return nil
}

// Claim atomically transitions a page from pending or failed to
// in_progress. Exactly one concurrent caller wins; the others get
// ErrNotClaimable. The check and the transition are a single UPDATE, so
// there is no window for two workers to claim the same page.
func (s *Store) Claim(ctx context.Context, url string) error {
	query := `
	UPDATE pages
	SET status = ?, updated_at = CURRENT_TIMESTAMP
	WHERE url = ? AND status IN (?, ?)
	`

	res, err := s.db.ExecContext(ctx, query, model.StatusInProgress, url, model.StatusPending, model.StatusFailed)
	if err != nil {
		return fmt.Errorf("failed to claim page %s: %w", url, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check claim result: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("claim %s: %w", url, ErrNotClaimable)
	}
	return nil
}

// Complete marks a claimed page as successfully scraped and records where
// its markdown was written. Only an in_progress page can complete; calling
// Complete on any other state is a no-op, so a stale worker can never
// overwrite a terminal state.
func (s *Store) Complete(ctx context.Context, url, title, filePath, contentHash string) error {
	query := `
	UPDATE pages
	SET status = ?, title = NULLIF(?, ''), file_path = NULLIF(?, ''),
	    content_hash = NULLIF(?, ''), error_message = NULL,
	    updated_at = CURRENT_TIMESTAMP, completed_at = CURRENT_TIMESTAMP
	WHERE url = ? AND status = ?
	`

	if _, err := s.db.ExecContext(ctx, query, model.StatusCompleted, title, filePath, contentHash, url, model.StatusInProgress); err != nil {
		return fmt.Errorf("failed to complete page %s: %w", url, err)
	}
	return nil
}

// Fail marks a page as failed with the given error message and increments
// its retry count. The retry count is the page's lifetime attempt tally; it
// is never reset, so the retry phase can order work by how troublesome a
// page has been. Only pending and in_progress pages can fail; the pending
// case covers attempts refused before the claim, such as a circuit-breaker
// rejection. Completed and skipped pages are never demoted.
func (s *Store) Fail(ctx context.Context, url, errorMessage string) error {
	query := `
	UPDATE pages
	SET status = ?, error_message = ?, retry_count = retry_count + 1,
	    updated_at = CURRENT_TIMESTAMP
	WHERE url = ? AND status IN (?, ?)
	`

	if _, err := s.db.ExecContext(ctx, query, model.StatusFailed, errorMessage, url,
		model.StatusPending, model.StatusInProgress); err != nil {
		return fmt.Errorf("failed to mark page %s failed: %w", url, err)
	}
	return nil
}

// Skip marks a page as skipped with a reason. Skipped is terminal and does
// not touch the retry count; the page limit is the usual cause. Like Fail,
// Skip only applies to pending and in_progress pages.
func (s *Store) Skip(ctx context.Context, url, reason string) error {
	query := `
	UPDATE pages
	SET status = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP
	WHERE url = ? AND status IN (?, ?)
	`

	if _, err := s.db.ExecContext(ctx, query, model.StatusSkipped, reason, url,
		model.StatusPending, model.StatusInProgress); err != nil {
		return fmt.Errorf("failed to skip page %s: %w", url, err)
	}
	return nil
}

// UpdateTitle sets a page's title without touching its status. Used when a
// redirect target supplies a better title than the discovery pass had.
func (s *Store) UpdateTitle(ctx context.Context, url, title string) error {
	query := `UPDATE pages SET title = ?, updated_at = CURRENT_TIMESTAMP WHERE url = ?`

	if _, err := s.db.ExecContext(ctx, query, title, url); err != nil {
		return fmt.Errorf("failed to update title for %s: %w", url, err)
	}
	return nil
}

// Page returns the frontier record for a URL, or ErrPageNotFound.
func (s *Store) Page(ctx context.Context, url string) (*model.PageRecord, error) {
	query := `
	SELECT url, status, title, content_hash, file_path, error_message,
	       retry_count, crawl_depth, parent_url, created_at, updated_at, completed_at
	FROM pages WHERE url = ?
	`

	rec, err := scanPage(s.db.QueryRowContext(ctx, query, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("page %s: %w", url, ErrPageNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query page %s: %w", url, err)
	}
	return rec, nil
}

// PendingPages returns the pages waiting to be scraped, shallowest first.
// Within a depth, pages that have failed less often come first, then older
// discoveries; rowid breaks the remaining ties so the order is stable.
// maxDepth of 0 disables depth filtering.
func (s *Store) PendingPages(ctx context.Context, maxDepth int) ([]*model.PageRecord, error) {
	query := `
	SELECT url, status, title, content_hash, file_path, error_message,
	       retry_count, crawl_depth, parent_url, created_at, updated_at, completed_at
	FROM pages
	WHERE status = ? AND (? = 0 OR crawl_depth <= ?)
	ORDER BY crawl_depth ASC, retry_count ASC, created_at ASC, rowid ASC
	`

	return s.queryPages(ctx, query, model.StatusPending, maxDepth, maxDepth)
}

// FailedPagesForRetry returns failed pages whose retry count is strictly
// below the ceiling, least-retried first. A page at the ceiling has used up
// its attempts and is never handed out again.
func (s *Store) FailedPagesForRetry(ctx context.Context, maxRetries int) ([]*model.PageRecord, error) {
	query := `
	SELECT url, status, title, content_hash, file_path, error_message,
	       retry_count, crawl_depth, parent_url, created_at, updated_at, completed_at
	FROM pages
	WHERE status = ? AND retry_count < ?
	ORDER BY retry_count ASC, created_at ASC, rowid ASC
	`

	return s.queryPages(ctx, query, model.StatusFailed, maxRetries)
}

// CompletedPages returns all completed pages that have an output file, for
// loading the link resolver's URL-to-file mapping.
func (s *Store) CompletedPages(ctx context.Context) ([]*model.PageRecord, error) {
	query := `
	SELECT url, status, title, content_hash, file_path, error_message,
	       retry_count, crawl_depth, parent_url, created_at, updated_at, completed_at
	FROM pages
	WHERE status = ? AND file_path IS NOT NULL
	ORDER BY file_path ASC
	`

	return s.queryPages(ctx, query, model.StatusCompleted)
}

// ResetInProgress returns pages left in_progress by an interrupted run to
// pending. Called once at the start of a resumed run, before any workers
// start. Returns the number of pages reset.
func (s *Store) ResetInProgress(ctx context.Context) (int64, error) {
	query := `
	UPDATE pages SET status = ?, updated_at = CURRENT_TIMESTAMP
	WHERE status = ?
	`

	res, err := s.db.ExecContext(ctx, query, model.StatusPending, model.StatusInProgress)
	if err != nil {
		return 0, fmt.Errorf("failed to reset in_progress pages: %w", err)
	}
	return res.RowsAffected()
}

// ResetForRetry returns failed pages strictly below the retry ceiling to
// pending and clears their error messages. Retry counts are preserved so
// the ceiling still applies across phases. Returns the number of pages
// reset.
func (s *Store) ResetForRetry(ctx context.Context, maxRetries int) (int64, error) {
	query := `
	UPDATE pages
	SET status = ?, error_message = NULL, updated_at = CURRENT_TIMESTAMP
	WHERE status = ? AND retry_count < ?
	`

	res, err := s.db.ExecContext(ctx, query, model.StatusPending, model.StatusFailed, maxRetries)
	if err != nil {
		return 0, fmt.Errorf("failed to reset failed pages: %w", err)
	}
	return res.RowsAffected()
}

// Statistics returns aggregate page and image counts for progress display
// and the final run summary.
func (s *Store) Statistics(ctx context.Context) (*model.Statistics, error) {
	stats := &model.Statistics{}

	pageQuery := `
	SELECT
		COUNT(*),
		COALESCE(SUM(status = 'completed'), 0),
		COALESCE(SUM(status = 'failed'), 0),
		COALESCE(SUM(status = 'pending'), 0),
		COALESCE(SUM(status = 'in_progress'), 0)
	FROM pages
	`

	err := s.db.QueryRowContext(ctx, pageQuery).Scan(
		&stats.Pages.Total,
		&stats.Pages.Completed,
		&stats.Pages.Failed,
		&stats.Pages.Pending,
		&stats.Pages.InProgress,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query page statistics: %w", err)
	}

	imageQuery := `
	SELECT
		COUNT(*),
		COALESCE(SUM(downloaded), 0),
		COALESCE(SUM(NOT downloaded AND error_message IS NOT NULL), 0)
	FROM images
	`

	err = s.db.QueryRowContext(ctx, imageQuery).Scan(
		&stats.Images.Total,
		&stats.Images.Downloaded,
		&stats.Images.Failed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query image statistics: %w", err)
	}

	return stats, nil
}

func (s *Store) queryPages(ctx context.Context, query string, args ...any) ([]*model.PageRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pages []*model.PageRecord
	for rows.Next() {
		rec, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page row: %w", err)
		}
		pages = append(pages, rec)
	}
	return pages, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (*model.PageRecord, error) {
	var (
		rec         model.PageRecord
		status      string
		title       sql.NullString
		contentHash sql.NullString
		filePath    sql.NullString
		errMsg      sql.NullString
		parentURL   sql.NullString
		createdAt   sql.NullString
		updatedAt   sql.NullString
		completedAt sql.NullString
	)

	err := row.Scan(&rec.URL, &status, &title, &contentHash, &filePath, &errMsg,
		&rec.RetryCount, &rec.CrawlDepth, &parentURL, &createdAt, &updatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	rec.Status = model.PageStatus(status)
	rec.Title = title.String
	rec.ContentHash = contentHash.String
	rec.FilePath = filePath.String
	rec.ErrorMessage = errMsg.String
	rec.ParentURL = parentURL.String
	if createdAt.Valid {
		rec.CreatedAt = parseTimestamp(createdAt.String)
	}
	if updatedAt.Valid {
		rec.UpdatedAt = parseTimestamp(updatedAt.String)
	}
	if completedAt.Valid {
		rec.CompletedAt = parseTimestamp(completedAt.String)
	}
	return &rec, nil
}
