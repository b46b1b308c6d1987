package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus()

	var got []Event
	bus.Subscribe(TypeBookingCreated, func(e Event) error {
		got = append(got, e)
		return nil
	})

	err := bus.PublishJSON(TypeBookingCreated, BookingPayload{BookingID: "bk-1", Status: "PENDING"})
	require.NoError(t, err)

	// Unrelated event types do not reach the handler.
	err = bus.PublishJSON(TypeConfigUpdated, ConfigPayload{Key: "basePrice", Value: "900"})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, TypeBookingCreated, got[0].Type)
	assert.False(t, got[0].CreatedAt.IsZero())

	var payload BookingPayload
	require.NoError(t, json.Unmarshal(got[0].Payload, &payload))
	assert.Equal(t, "bk-1", payload.BookingID)
}

func TestBusMultipleSubscribers(t *testing.T) {
	bus := NewBus()

	calls := 0
	for i := 0; i < 3; i++ {
		bus.Subscribe(TypeSlotBlockToggled, func(Event) error {
			calls++
			return nil
		})
	}

	err := bus.PublishJSON(TypeSlotBlockToggled, BlockPayload{Date: "2026-05-01", SlotID: "slot-9", Blocked: true})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestBusNoSubscribers(t *testing.T) {
	bus := NewBus()
	assert.NoError(t, bus.PublishJSON(TypeBookingRejected, BookingPayload{BookingID: "bk-1"}))
}
