package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Save statuses
const (
	StatusSaved     = "saved"
	StatusFailed    = "failed"
	StatusDryRun    = "dry-run"
	StatusDuplicate = "duplicate"
)

// SaveRecord is one row of clip history
type SaveRecord struct {
	SaveID         int64
	ItemID         string
	Title          string
	SourceURL      string
	NotionPageID   string
	Status         string
	ErrorMessage   string
	Blocks         int
	Paragraphs     int
	Images         int
	Notices        int
	Chars          int
	Truncated      bool
	ImagesStripped bool
	CreatedAt      time.Time
}

// Stats aggregates the saves table
type Stats struct {
	Total       int
	Saved       int
	Failed      int
	DryRuns     int
	Duplicates  int
	Truncated   int
	Stripped    int
	TotalBlocks int
	TotalChars  int
	LastSavedAt *time.Time
}

// RecordSave inserts a history row and returns its id.
func (db *DB) RecordSave(ctx context.Context, r SaveRecord) (int64, error) {
	if r.Status == "" {
		return 0, fmt.Errorf("save record for %q has no status", r.Title)
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO saves (item_id, title, source_url, notion_page_id, status, error_message,
		                   block_count, paragraph_count, image_count, notice_count, char_count,
		                   truncated, images_stripped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, nullString(r.ItemID), r.Title, nullString(r.SourceURL), nullString(r.NotionPageID), r.Status,
		nullString(r.ErrorMessage), r.Blocks, r.Paragraphs, r.Images, r.Notices, r.Chars,
		r.Truncated, r.ImagesStripped)
	if err != nil {
		return 0, fmt.Errorf("failed to insert save: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get save ID: %w", err)
	}
	return id, nil
}

// ListSaves retrieves history ordered by most recent first
func (db *DB) ListSaves(ctx context.Context, limit int) ([]SaveRecord, error) {
	query := `
		SELECT save_id, item_id, title, source_url, notion_page_id, status, error_message,
		       block_count, paragraph_count, image_count, notice_count, char_count,
		       truncated, images_stripped, created_at
		FROM saves
		ORDER BY created_at DESC, save_id DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	defer rows.Close()

	var saves []SaveRecord
	for rows.Next() {
		var r SaveRecord
		var itemID, sourceURL, pageID, errMsg sql.NullString
		if err := rows.Scan(&r.SaveID, &itemID, &r.Title, &sourceURL, &pageID, &r.Status, &errMsg,
			&r.Blocks, &r.Paragraphs, &r.Images, &r.Notices, &r.Chars,
			&r.Truncated, &r.ImagesStripped, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan save: %w", err)
		}
		r.ItemID = itemID.String
		r.SourceURL = sourceURL.String
		r.NotionPageID = pageID.String
		r.ErrorMessage = errMsg.String
		saves = append(saves, r)
	}

	return saves, rows.Err()
}

// Stats summarizes the save history
func (db *DB) Stats(ctx context.Context) (*Stats, error) {
	s := &Stats{}
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(truncated), 0),
		       COALESCE(SUM(images_stripped), 0),
		       COALESCE(SUM(block_count), 0),
		       COALESCE(SUM(char_count), 0)
		FROM saves
	`, StatusSaved, StatusFailed, StatusDryRun, StatusDuplicate).Scan(
		&s.Total, &s.Saved, &s.Failed, &s.DryRuns, &s.Duplicates,
		&s.Truncated, &s.Stripped, &s.TotalBlocks, &s.TotalChars)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	var last time.Time
	err = db.QueryRowContext(ctx,
		"SELECT created_at FROM saves WHERE status = ? ORDER BY created_at DESC, save_id DESC LIMIT 1",
		StatusSaved).Scan(&last)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, fmt.Errorf("failed to get last save: %w", err)
	default:
		s.LastSavedAt = &last
	}

	return s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
