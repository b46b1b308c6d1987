package database

import (
	"context"
	"fmt"
	"time"
)

// Sheet sync task types.
const (
	SyncTaskAppend       = "append"
	SyncTaskUpdateStatus = "update_status"
)

const maxSyncRetries = 8

// SyncTask is one queued mirror operation against the legacy spreadsheet.
type SyncTask struct {
	ID         int64
	TaskType   string
	BookingID  string
	RetryCount int
}

// EnqueueSheetSync queues a mirror task for a booking. Mirroring is
// best-effort; enqueue failures are reported but must not fail the
// booking operation itself.
func (db *DB) EnqueueSheetSync(ctx context.Context, taskType, bookingID string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sheet_sync_queue (task_type, booking_id) VALUES (?, ?)`,
		taskType, bookingID,
	)
	if err != nil {
		return fmt.Errorf("enqueue sheet sync: %w", err)
	}
	return nil
}

// DequeueSheetSync returns up to limit pending tasks that are due.
func (db *DB) DequeueSheetSync(ctx context.Context, limit int) ([]SyncTask, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, task_type, booking_id, retry_count FROM sheet_sync_queue
		WHERE status = 'pending' AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY id LIMIT ?`,
		time.Now(), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []SyncTask
	for rows.Next() {
		var t SyncTask
		if err := rows.Scan(&t.ID, &t.TaskType, &t.BookingID, &t.RetryCount); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// MarkSyncDone finalizes a completed task.
func (db *DB) MarkSyncDone(ctx context.Context, id int64) error {
	_, err := db.ExecContext(ctx, `
		UPDATE sheet_sync_queue SET status = 'done', processed_at = ? WHERE id = ?`,
		time.Now(), id,
	)
	return err
}

// MarkSyncFailed records a failure and schedules the next retry with
// exponential backoff; tasks give up after maxSyncRetries attempts.
func (db *DB) MarkSyncFailed(ctx context.Context, id int64, cause string) error {
	var retries int
	err := db.QueryRowContext(ctx,
		`SELECT retry_count FROM sheet_sync_queue WHERE id = ?`, id,
	).Scan(&retries)
	if err != nil {
		return err
	}

	retries++
	if retries >= maxSyncRetries {
		_, err = db.ExecContext(ctx, `
			UPDATE sheet_sync_queue
			SET status = 'failed', retry_count = ?, last_error = ?, processed_at = ?
			WHERE id = ?`,
			retries, cause, time.Now(), id,
		)
		return err
	}

	backoff := time.Duration(1<<uint(retries)) * 30 * time.Second
	if backoff > 30*time.Minute {
		backoff = 30 * time.Minute
	}
	_, err = db.ExecContext(ctx, `
		UPDATE sheet_sync_queue
		SET retry_count = ?, last_error = ?, next_retry_at = ?
		WHERE id = ?`,
		retries, cause, time.Now().Add(backoff), id,
	)
	return err
}
