package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Booking statuses as stored in the bookings table and on the wire.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

// DateFormat is the calendar-day format used everywhere: in the store,
// in slot queries and on the wire. No time zone conversion is applied.
const DateFormat = "2006-01-02"

// Bookable hours. Slot ids run "slot-6" through "slot-23", one hour each.
const (
	FirstSlotHour = 6
	LastSlotHour  = 23
)

// Booking represents one turf booking record. Records are never deleted;
// the status field carries the lifecycle (PENDING -> CONFIRMED/REJECTED).
type Booking struct {
	ID         string    `json:"id"`
	Date       string    `json:"date"` // YYYY-MM-DD
	SlotID     string    `json:"slot_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Amount     float64   `json:"amount"`
	Status     string    `json:"status"`
	CreatedAt  string    `json:"created_at"` // raw RFC3339 text; legacy rows may hold garbage
	PaymentRef string    `json:"payment_ref"`
	ProofURL   string    `json:"proof_url"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreatedTime parses the stored creation timestamp.
func (b *Booking) CreatedTime() (time.Time, error) {
	return time.Parse(time.RFC3339, b.CreatedAt)
}

// HoldsSlot reports whether this booking makes its slot unavailable at
// the given instant. A CONFIRMED booking always holds the slot. A PENDING
// booking holds it only within the soft-lock window after creation; an
// unparsable creation timestamp counts as still held, never as free.
func (b *Booking) HoldsSlot(now time.Time, window time.Duration) bool {
	switch b.Status {
	case StatusConfirmed:
		return true
	case StatusPending:
		created, err := b.CreatedTime()
		if err != nil {
			return true
		}
		return now.Sub(created) < window
	default:
		return false
	}
}

// SlotHour extracts the starting hour from a slot id like "slot-18".
func SlotHour(slotID string) (int, error) {
	rest, ok := strings.CutPrefix(slotID, "slot-")
	if !ok {
		return 0, fmt.Errorf("invalid slot id %q", slotID)
	}
	hour, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid slot id %q", slotID)
	}
	if hour < FirstSlotHour || hour > LastSlotHour {
		return 0, fmt.Errorf("slot hour %d out of range", hour)
	}
	return hour, nil
}

// ValidSlotID reports whether the slot id names a bookable hour.
func ValidSlotID(slotID string) bool {
	_, err := SlotHour(slotID)
	return err == nil
}

// ParseDate validates and parses a YYYY-MM-DD calendar day.
func ParseDate(date string) (time.Time, error) {
	return time.Parse(DateFormat, date)
}
