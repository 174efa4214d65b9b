package frontier

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/docmirror/docmirror/internal/model"
)

// StartRun records the start of a crawl run and returns its row ID. Each
// run gets a fresh UUID for correlating logs with run history.
func (s *Store) StartRun(ctx context.Context) (int64, error) {
	query := `INSERT INTO runs (uuid) VALUES (?)`

	res, err := s.db.ExecContext(ctx, query, uuid.NewString())
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}
	return res.LastInsertId()
}

// UpdateRunStats writes the current page and image counters onto a run row.
// Called periodically during the crawl so an interrupted run still has
// approximate totals.
func (s *Store) UpdateRunStats(ctx context.Context, runID int64, stats *model.Statistics) error {
	query := `
	UPDATE runs
	SET pages_total = ?, pages_completed = ?, pages_failed = ?,
	    images_total = ?, images_downloaded = ?
	WHERE id = ?
	`

	_, err := s.db.ExecContext(ctx, query,
		stats.Pages.Total, stats.Pages.Completed, stats.Pages.Failed,
		stats.Images.Total, stats.Images.Downloaded, runID)
	if err != nil {
		return fmt.Errorf("failed to update run %d: %w", runID, err)
	}
	return nil
}

// CompleteRun stamps a run's completion time and final counters.
func (s *Store) CompleteRun(ctx context.Context, runID int64, stats *model.Statistics) error {
	if err := s.UpdateRunStats(ctx, runID, stats); err != nil {
		return err
	}

	query := `UPDATE runs SET completed_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, query, runID); err != nil {
		return fmt.Errorf("failed to complete run %d: %w", runID, err)
	}
	return nil
}

// LatestRun returns the most recently started run, or ErrRunNotFound when
// the runs table is empty.
func (s *Store) LatestRun(ctx context.Context) (*model.RunRecord, error) {
	query := `
	SELECT id, uuid, started_at, completed_at,
	       pages_total, pages_completed, pages_failed,
	       images_total, images_downloaded
	FROM runs ORDER BY id DESC LIMIT 1
	`

	var (
		rec         model.RunRecord
		startedAt   sql.NullString
		completedAt sql.NullString
	)

	err := s.db.QueryRowContext(ctx, query).Scan(
		&rec.ID, &rec.UUID, &startedAt, &completedAt,
		&rec.PagesTotal, &rec.PagesCompleted, &rec.PagesFailed,
		&rec.ImagesTotal, &rec.ImagesDownloaded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}

	if startedAt.Valid {
		rec.StartedAt = parseTimestamp(startedAt.String)
	}
	if completedAt.Valid {
		rec.CompletedAt = parseTimestamp(completedAt.String)
	}
	return &rec, nil
}
