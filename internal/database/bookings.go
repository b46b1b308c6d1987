package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"turfbook/internal/models"
)

// CreateBooking re-verifies slot availability and appends the record in a
// single write transaction. The re-check inside the transaction replaces
// the old global script lock: two concurrent requests serialize here and
// the loser sees the winner's row.
func (db *DB) CreateBooking(ctx context.Context, b *models.Booking, holdWindow time.Duration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, status, created_at FROM bookings
		WHERE date = ? AND slot_id = ? AND status IN ('CONFIRMED', 'PENDING')`,
		b.Date, b.SlotID,
	)
	if err != nil {
		return fmt.Errorf("check slot: %w", err)
	}

	now := time.Now()
	var verdict error
	for rows.Next() {
		var existing models.Booking
		if err := rows.Scan(&existing.ID, &existing.Status, &existing.CreatedAt); err != nil {
			rows.Close()
			return fmt.Errorf("scan existing booking: %w", err)
		}
		if existing.Status == models.StatusConfirmed {
			verdict = ErrSlotAlreadyBooked
			break
		}
		if _, perr := existing.CreatedTime(); perr != nil {
			// Cannot tell whether the hold expired; fail safe.
			verdict = ErrSlotUnavailable
			continue
		}
		if existing.HoldsSlot(now, holdWindow) {
			verdict = ErrSlotOnHold
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scan bookings: %w", err)
	}
	if verdict != nil {
		return verdict
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (
			id, date, slot_id, customer_name, phone, amount,
			status, created_at, payment_reference, proof_image_url, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Date, b.SlotID, b.Name, b.Phone, b.Amount,
		b.Status, b.CreatedAt, b.PaymentRef, b.ProofURL, now,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	b.UpdatedAt = now
	return nil
}

// GetBooking returns a booking by id.
func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	b, err := scanBooking(db.QueryRowContext(ctx, selectBookingColumns+` WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBookingsByDate returns all bookings for a calendar day, in insertion
// order. The availability scan over these rows happens in the service.
func (db *DB) GetBookingsByDate(ctx context.Context, date string) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, selectBookingColumns+` WHERE date = ?`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListBookings returns every booking, newest first.
func (db *DB) ListBookings(ctx context.Context) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, selectBookingColumns+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// UpdateBookingStatus transitions a booking to CONFIRMED or REJECTED and
// returns the updated record. Confirming re-validates that no other
// CONFIRMED booking holds the same slot; without this check two PENDING
// bookings for one slot could both be approved.
func (db *DB) UpdateBookingStatus(ctx context.Context, id, newStatus string) (*models.Booking, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	b, err := scanBooking(tx.QueryRowContext(ctx, selectBookingColumns+` WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}

	if newStatus == models.StatusConfirmed {
		var confirmed int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM bookings
			WHERE date = ? AND slot_id = ? AND status = 'CONFIRMED' AND id != ?`,
			b.Date, b.SlotID, b.ID,
		).Scan(&confirmed)
		if err != nil {
			return nil, fmt.Errorf("check confirmed: %w", err)
		}
		if confirmed > 0 {
			return nil, ErrSlotConflict
		}
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`,
		newStatus, now, id,
	); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	b.Status = newStatus
	b.UpdatedAt = now
	return b, nil
}

const selectBookingColumns = `
	SELECT id, date, slot_id, customer_name, phone, amount,
	       status, created_at, payment_reference, proof_image_url, updated_at
	FROM bookings`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID, &b.Date, &b.SlotID, &b.Name, &b.Phone, &b.Amount,
		&b.Status, &b.CreatedAt, &b.PaymentRef, &b.ProofURL, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows *sql.Rows) ([]models.Booking, error) {
	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}
