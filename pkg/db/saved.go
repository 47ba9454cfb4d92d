package db

import (
	"context"
	"fmt"
)

// Has reports whether item id was already saved. DB satisfies dedup.Store.
func (db *DB) Has(ctx context.Context, id string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM saved_items WHERE item_id = ?", id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query saved item: %w", err)
	}
	return n > 0, nil
}

// Add records item id. Adding an existing id is a no-op.
func (db *DB) Add(ctx context.Context, id string) error {
	_, err := db.ExecContext(ctx, "INSERT OR IGNORE INTO saved_items (item_id) VALUES (?)", id)
	if err != nil {
		return fmt.Errorf("failed to insert saved item: %w", err)
	}
	return nil
}

// ForgetItem removes an id so the item can be saved again.
func (db *DB) ForgetItem(ctx context.Context, id string) error {
	_, err := db.ExecContext(ctx, "DELETE FROM saved_items WHERE item_id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete saved item: %w", err)
	}
	return nil
}
