package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"turfbook/internal/config"
	"turfbook/internal/database"
	"turfbook/internal/events"
	"turfbook/internal/models"
	"turfbook/internal/service"
	"turfbook/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	srv *httptest.Server
	db  *database.DB
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger := zerolog.Nop()
	dir := t.TempDir()

	db, err := database.NewDB(filepath.Join(dir, "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.Server.Port = 0
	cfg.Server.BaseURL = "http://localhost:8080"
	cfg.Uploads.Dir = filepath.Join(dir, "uploads")
	cfg.Booking.HoldWindowHours = 4

	proofs, err := storage.NewStore(cfg.Uploads.Dir, cfg.Server.BaseURL, 0, &logger)
	require.NoError(t, err)

	bus := events.NewBus()
	availability := service.NewAvailabilityService(db, nil, 0, cfg.HoldWindow(), &logger)
	bookings := service.NewBookingService(db, proofs, bus, availability, cfg.HoldWindow(), &logger)

	server := NewHTTPServer(cfg, db, bookings, availability, bus, &logger)
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	return &apiFixture{srv: srv, db: db}
}

func (f *apiFixture) post(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(f.srv.URL+"/exec", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (f *apiFixture) get(t *testing.T, query string) map[string]any {
	t.Helper()
	resp, err := http.Get(f.srv.URL + "/?" + query)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createBookingBody(slotID string) map[string]any {
	return map[string]any{
		"action": "createBooking",
		"date":   "2026-05-01",
		"slotId": slotID,
		"name":   "Test Customer",
		"phone":  "9876543210",
		"amount": 800,
	}
}

func TestCreateBookingFlow(t *testing.T) {
	f := newAPIFixture(t)

	out := f.post(t, createBookingBody("slot-10"))
	assert.Equal(t, "success", out["status"])
	assert.NotEmpty(t, out["bookingId"])

	// Same slot again: held by the pending booking.
	out = f.post(t, createBookingBody("slot-10"))
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "Slot is currently on hold (Pending Approval)", out["message"])

	// Different slot is free.
	out = f.post(t, createBookingBody("slot-11"))
	assert.Equal(t, "success", out["status"])
}

func TestCreateBookingWrongAmount(t *testing.T) {
	f := newAPIFixture(t)

	body := createBookingBody("slot-10")
	body["amount"] = 999
	out := f.post(t, body)
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "Amount does not match the current price", out["message"])

	// Raising the base price makes the new amount the valid one.
	f.post(t, map[string]any{"action": "updatePrice", "key": "basePrice", "value": 999})
	out = f.post(t, body)
	assert.Equal(t, "success", out["status"])
}

func TestApproveRejectFlow(t *testing.T) {
	f := newAPIFixture(t)

	out := f.post(t, createBookingBody("slot-10"))
	id := out["bookingId"].(string)

	out = f.post(t, map[string]any{"action": "approveBooking", "bookingId": id})
	assert.Equal(t, "success", out["status"])

	// Once confirmed, the conflict message changes.
	out = f.post(t, createBookingBody("slot-10"))
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "Slot already booked", out["message"])

	out = f.post(t, map[string]any{"action": "rejectBooking", "bookingId": "ghost"})
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "Booking not found", out["message"])
}

func TestApproveConflict(t *testing.T) {
	f := newAPIFixture(t)

	// Seed two expired pendings on the same slot directly, then approve
	// both; the second approval must fail.
	stale := time.Now().Add(-10 * time.Hour)
	first := seedBooking(t, f.db, "slot-10", stale)
	second := seedBooking(t, f.db, "slot-10", stale)

	out := f.post(t, map[string]any{"action": "approveBooking", "bookingId": first})
	assert.Equal(t, "success", out["status"])

	out = f.post(t, map[string]any{"action": "approveBooking", "bookingId": second})
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "Another booking for this slot is already confirmed", out["message"])
}

func seedBooking(t *testing.T, db *database.DB, slotID string, createdAt time.Time) string {
	t.Helper()
	b := &models.Booking{
		ID:         uuid.New().String(),
		Date:       "2026-05-01",
		SlotID:     slotID,
		Name:       "Seed",
		Phone:      "1",
		Amount:     800,
		Status:     models.StatusPending,
		CreatedAt:  createdAt.UTC().Format(time.RFC3339),
		PaymentRef: "N/A",
		ProofURL:   "N/A",
	}
	require.NoError(t, db.CreateBooking(context.Background(), b, 4*time.Hour))
	return b.ID
}

func TestGetAvailability(t *testing.T) {
	f := newAPIFixture(t)

	f.post(t, createBookingBody("slot-10"))
	f.post(t, map[string]any{"action": "toggleBlock", "date": "2026-05-01", "slotId": "slot-20"})

	out := f.get(t, "action=getAvailability&date=2026-05-01")
	assert.ElementsMatch(t, []any{"slot-10"}, out["booked"])
	assert.ElementsMatch(t, []any{"slot-20"}, out["blocked"])

	out = f.get(t, "action=getAvailability&date=bogus")
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "Invalid date", out["message"])
}

func TestGetAvailabilityStoreFailure(t *testing.T) {
	f := newAPIFixture(t)

	// A well-formed date against a broken store is a server error the
	// caller may retry, not a rejected request.
	require.NoError(t, f.db.Close())

	out := f.get(t, "action=getAvailability&date=2026-05-01")
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "Internal error, please try again", out["message"])
}

func TestToggleBlockRoundTrip(t *testing.T) {
	f := newAPIFixture(t)

	out := f.post(t, map[string]any{"action": "toggleBlock", "date": "2026-05-01", "slotId": "slot-20"})
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "blocked", out["action"])

	out = f.post(t, map[string]any{"action": "toggleBlock", "date": "2026-05-01", "slotId": "slot-20"})
	assert.Equal(t, "unblocked", out["action"])

	out = f.post(t, map[string]any{"action": "toggleBlock", "date": "2026-05-01", "slotId": "pitch-3"})
	assert.Equal(t, "error", out["status"])
}

func TestUpdatePrice(t *testing.T) {
	f := newAPIFixture(t)

	// Numbers and strings are both accepted.
	out := f.post(t, map[string]any{"action": "updatePrice", "key": "basePrice", "value": 900})
	assert.Equal(t, "success", out["status"])

	out = f.post(t, map[string]any{"action": "updatePrice", "key": "upiId", "value": "turf@upi"})
	assert.Equal(t, "success", out["status"])

	// A value that breaks pricing validation is refused.
	out = f.post(t, map[string]any{"action": "updatePrice", "key": "basePrice", "value": "free"})
	assert.Equal(t, "error", out["status"])

	day := f.get(t, "action=getAvailability&date=2026-05-01")
	pricing := day["pricing"].(map[string]any)
	assert.Equal(t, "900", pricing["basePrice"])
	assert.Equal(t, "turf@upi", pricing["upiId"])
}

func TestGetAllData(t *testing.T) {
	f := newAPIFixture(t)

	out := f.post(t, createBookingBody("slot-10"))
	id := out["bookingId"].(string)
	f.post(t, map[string]any{"action": "toggleBlock", "date": "2026-05-01", "slotId": "slot-20"})
	f.post(t, map[string]any{"action": "updatePrice", "key": "basePrice", "value": 850})

	all := f.get(t, "action=getAllData")

	bookings := all["bookings"].([]any)
	require.Len(t, bookings, 1)
	row := bookings[0].(map[string]any)
	// Legacy dashboard field names survive.
	assert.Equal(t, id, row["BookingId"])
	assert.Equal(t, "slot-10", row["Slot"])
	assert.Equal(t, "PENDING", row["Status"])
	assert.Equal(t, "N/A", row["Email"])

	blocked := all["blocked"].([]any)
	require.Len(t, blocked, 1)
	assert.Equal(t, "slot-20", blocked[0].(map[string]any)["SlotId"])

	cfgMap := all["config"].(map[string]any)
	assert.Equal(t, "850", cfgMap["basePrice"])
}

func TestInvalidAction(t *testing.T) {
	f := newAPIFixture(t)

	out := f.get(t, "action=destroyEverything")
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "Invalid action", out["message"])

	out = f.post(t, map[string]any{"action": "destroyEverything"})
	assert.Equal(t, "Invalid action", out["message"])
}

func TestExportBookings(t *testing.T) {
	f := newAPIFixture(t)
	f.post(t, createBookingBody("slot-10"))

	resp, err := http.Get(f.srv.URL + "/?action=exportBookings")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
}
