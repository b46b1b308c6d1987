package database

import (
	"context"
	"database/sql"
	"fmt"

	"turfbook/internal/models"
)

// ToggleBlock flips the administrative block for a (date, slot) pair and
// reports the resulting state: true if the slot is now blocked. Calling
// it twice restores the original state.
func (db *DB) ToggleBlock(ctx context.Context, date, slotID, reason string) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM blocked_slots WHERE date = ? AND slot_id = ?`,
		date, slotID,
	)
	if err != nil {
		return false, fmt.Errorf("delete block: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	blocked := false
	if removed == 0 {
		if reason == "" {
			reason = models.DefaultBlockReason
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO blocked_slots (date, slot_id, reason) VALUES (?, ?, ?)`,
			date, slotID, reason,
		); err != nil {
			return false, fmt.Errorf("insert block: %w", err)
		}
		blocked = true
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return blocked, nil
}

// ListBlockedByDate returns blocks for one calendar day.
func (db *DB) ListBlockedByDate(ctx context.Context, date string) ([]models.BlockedSlot, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT date, slot_id, reason, created_at FROM blocked_slots
		WHERE date = ? ORDER BY slot_id`,
		date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBlocks(rows)
}

// ListBlocked returns every block row.
func (db *DB) ListBlocked(ctx context.Context) ([]models.BlockedSlot, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT date, slot_id, reason, created_at FROM blocked_slots
		ORDER BY date, slot_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBlocks(rows)
}

func collectBlocks(rows *sql.Rows) ([]models.BlockedSlot, error) {
	var blocks []models.BlockedSlot
	for rows.Next() {
		var bl models.BlockedSlot
		if err := rows.Scan(&bl.Date, &bl.SlotID, &bl.Reason, &bl.CreatedAt); err != nil {
			return nil, err
		}
		blocks = append(blocks, bl)
	}
	return blocks, rows.Err()
}
