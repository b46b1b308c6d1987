package models

import "time"

// DefaultBlockReason is recorded when an admin blocks a slot without
// giving an explicit reason.
const DefaultBlockReason = "Manual Block"

// BlockedSlot is an administrative override making a slot unbookable for
// a date regardless of booking state (maintenance and the like).
type BlockedSlot struct {
	Date      string    `json:"date"` // YYYY-MM-DD
	SlotID    string    `json:"slot_id"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
