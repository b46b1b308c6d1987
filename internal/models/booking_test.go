package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHoldsSlot(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	window := 4 * time.Hour

	tests := []struct {
		name      string
		status    string
		createdAt string
		want      bool
	}{
		{"confirmed always holds", StatusConfirmed, now.Add(-100 * time.Hour).Format(time.RFC3339), true},
		{"fresh pending holds", StatusPending, now.Add(-time.Hour).Format(time.RFC3339), true},
		{"pending just inside window", StatusPending, now.Add(-window + time.Minute).Format(time.RFC3339), true},
		{"pending exactly at window expires", StatusPending, now.Add(-window).Format(time.RFC3339), false},
		{"stale pending expires", StatusPending, now.Add(-10 * time.Hour).Format(time.RFC3339), false},
		{"rejected never holds", StatusRejected, now.Format(time.RFC3339), false},
		{"cancelled never holds", StatusCancelled, now.Format(time.RFC3339), false},
		{"pending with unparsable timestamp holds", StatusPending, "not-a-timestamp", true},
		{"pending with empty timestamp holds", StatusPending, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Booking{Status: tt.status, CreatedAt: tt.createdAt}
			assert.Equal(t, tt.want, b.HoldsSlot(now, window))
		})
	}
}

func TestSlotHour(t *testing.T) {
	hour, err := SlotHour("slot-6")
	assert.NoError(t, err)
	assert.Equal(t, 6, hour)

	hour, err = SlotHour("slot-23")
	assert.NoError(t, err)
	assert.Equal(t, 23, hour)

	_, err = SlotHour("slot-5")
	assert.Error(t, err)

	_, err = SlotHour("slot-24")
	assert.Error(t, err)

	_, err = SlotHour("court-7")
	assert.Error(t, err)

	_, err = SlotHour("slot-abc")
	assert.Error(t, err)
}

func TestValidSlotID(t *testing.T) {
	assert.True(t, ValidSlotID("slot-6"))
	assert.True(t, ValidSlotID("slot-18"))
	assert.False(t, ValidSlotID("slot-0"))
	assert.False(t, ValidSlotID(""))
	assert.False(t, ValidSlotID("slot-"))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-14")
	assert.NoError(t, err)
	assert.Equal(t, time.March, d.Month())

	_, err = ParseDate("14-03-2026")
	assert.Error(t, err)

	_, err = ParseDate("")
	assert.Error(t, err)
}
