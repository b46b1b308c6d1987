package events

import (
	"encoding/json"
	"sync"
	"time"
)

// Event types published by the booking flow.
const (
	TypeBookingCreated   = "booking.created"
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingRejected  = "booking.rejected"
	TypeSlotBlockToggled = "slot.block_toggled"
	TypeConfigUpdated    = "config.updated"
)

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Handler reacts to an event.
type Handler func(event Event) error

// Bus provides in-process pub/sub for events.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON marshals the payload and publishes it.
func (b *Bus) PublishJSON(eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.Publish(Event{Type: eventType, Payload: data})
	return nil
}

// BookingPayload is the payload carried by booking.* events.
type BookingPayload struct {
	BookingID string  `json:"booking_id"`
	Date      string  `json:"date"`
	SlotID    string  `json:"slot_id"`
	Name      string  `json:"name"`
	Phone     string  `json:"phone"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
}

// BlockPayload is the payload carried by slot.block_toggled events.
type BlockPayload struct {
	Date    string `json:"date"`
	SlotID  string `json:"slot_id"`
	Blocked bool   `json:"blocked"`
}

// ConfigPayload is the payload carried by config.updated events.
type ConfigPayload struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
