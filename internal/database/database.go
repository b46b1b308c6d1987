package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps the sqlite connection holding bookings, blocks, config and the
// sheet sync queue.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

var (
	// ErrSlotAlreadyBooked means a CONFIRMED booking exists for the slot.
	ErrSlotAlreadyBooked = errors.New("slot already booked")
	// ErrSlotOnHold means a PENDING booking still soft-reserves the slot.
	ErrSlotOnHold = errors.New("slot on hold")
	// ErrSlotUnavailable is the conservative verdict when a PENDING record
	// for the slot has an unparsable creation timestamp.
	ErrSlotUnavailable = errors.New("slot unavailable")
	// ErrSlotConflict means approving would create a second CONFIRMED
	// booking for the same slot.
	ErrSlotConflict = errors.New("slot conflict")
	// ErrBookingNotFound means the booking id does not exist.
	ErrBookingNotFound = errors.New("booking not found")
)

// NewDB opens the database, creating it and its schema as needed.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode, busy timeout and immediate write transactions: concurrent
	// createBooking requests serialize on the write lock instead of both
	// observing a free slot.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=10000&_txlock=immediate"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	instance := &DB{
		DB:     db,
		logger: logger,
	}

	if err := instance.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return instance, nil
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			date TEXT NOT NULL,
			slot_id TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			phone TEXT NOT NULL,
			amount REAL NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'PENDING',
			created_at TEXT NOT NULL,
			payment_reference TEXT NOT NULL DEFAULT 'N/A',
			proof_image_url TEXT NOT NULL DEFAULT 'N/A',
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS blocked_slots (
			date TEXT NOT NULL,
			slot_id TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(date, slot_id)
		)`,

		`CREATE TABLE IF NOT EXISTS config (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS sheet_sync_queue (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_type TEXT NOT NULL,
			booking_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			retry_count INTEGER NOT NULL DEFAULT 0,
			last_error TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			processed_at DATETIME,
			next_retry_at DATETIME
		)`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_date ON bookings(date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_date_slot ON bookings(date, slot_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,

		// Store-level guarantee: at most one CONFIRMED booking per slot,
		// whatever the code above it does.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_confirmed_slot
			ON bookings(date, slot_id) WHERE status = 'CONFIRMED'`,

		`CREATE INDEX IF NOT EXISTS idx_blocked_date ON blocked_slots(date)`,

		`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sheet_sync_queue(status)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_next_retry ON sheet_sync_queue(next_retry_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
