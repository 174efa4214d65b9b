package frontier

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/docmirror/docmirror/internal/model"
)

// AddImage records an image URL discovered on a page. Re-adding a known
// image URL is a no-op, matching AddPage.
func (s *Store) AddImage(ctx context.Context, url, pageURL string) error {
	query := `INSERT OR IGNORE INTO images (url, page_url) VALUES (?, ?)`

	if _, err := s.db.ExecContext(ctx, query, url, pageURL); err != nil {
		return fmt.Errorf("failed to add image %s: %w", url, err)
	}
	return nil
}

// CompleteImage marks an image as downloaded at the given local path.
func (s *Store) CompleteImage(ctx context.Context, url, localPath string) error {
	query := `
	UPDATE images SET downloaded = 1, local_path = ?, error_message = NULL
	WHERE url = ?
	`

	if _, err := s.db.ExecContext(ctx, query, localPath, url); err != nil {
		return fmt.Errorf("failed to complete image %s: %w", url, err)
	}
	return nil
}

// FailImage records a download error for an image.
func (s *Store) FailImage(ctx context.Context, url, errorMessage string) error {
	query := `UPDATE images SET error_message = ? WHERE url = ?`

	if _, err := s.db.ExecContext(ctx, query, errorMessage, url); err != nil {
		return fmt.Errorf("failed to mark image %s failed: %w", url, err)
	}
	return nil
}

// PendingImages returns images not yet downloaded, including ones whose
// previous attempt failed.
func (s *Store) PendingImages(ctx context.Context) ([]*model.ImageRecord, error) {
	query := `
	SELECT url, page_url, local_path, downloaded, error_message, created_at
	FROM images
	WHERE downloaded = 0
	ORDER BY rowid ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending images: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var images []*model.ImageRecord
	for rows.Next() {
		var (
			rec       model.ImageRecord
			localPath sql.NullString
			errMsg    sql.NullString
			createdAt sql.NullString
		)
		if err := rows.Scan(&rec.URL, &rec.PageURL, &localPath, &rec.Downloaded, &errMsg, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan image row: %w", err)
		}
		rec.LocalPath = localPath.String
		rec.ErrorMessage = errMsg.String
		if createdAt.Valid {
			rec.CreatedAt = parseTimestamp(createdAt.String)
		}
		images = append(images, &rec)
	}
	return images, rows.Err()
}
