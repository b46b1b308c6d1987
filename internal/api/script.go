package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"turfbook/internal/database"
	"turfbook/internal/events"
	"turfbook/internal/export"
	"turfbook/internal/metrics"
	"turfbook/internal/models"
	"turfbook/internal/service"
)

// LegacyBooking is the booking shape the admin dashboard expects: the
// original spreadsheet column names, verbatim.
type LegacyBooking struct {
	BookingID     string  `json:"BookingId"`
	Date          string  `json:"Date"`
	Slot          string  `json:"Slot"`
	Name          string  `json:"Name"`
	Phone         string  `json:"Phone"`
	Email         string  `json:"Email"`
	Amount        float64 `json:"Amount"`
	Status        string  `json:"Status"`
	Timestamp     string  `json:"Timestamp"`
	PaymentID     string  `json:"PaymentId"`
	ScreenshotURL string  `json:"ScreenshotUrl"`
}

// LegacyBlock mirrors the blocked-slot row shape.
type LegacyBlock struct {
	Date   string `json:"Date"`
	SlotID string `json:"SlotId"`
	Reason string `json:"Reason"`
}

type scriptRequest struct {
	Action    string          `json:"action"`
	Date      string          `json:"date"`
	SlotID    string          `json:"slotId"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	Amount    float64         `json:"amount"`
	Image     string          `json:"image"`
	PaymentID string          `json:"paymentId"`
	BookingID string          `json:"bookingId"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
}

// handleScript dispatches on the action selector. Matching the legacy
// contract, every response is HTTP 200 and failures are signalled with
// {"status":"error","message":...} in the body.
func (s *HTTPServer) handleScript(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/exec" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		action := r.URL.Query().Get("action")
		metrics.IncHTTP(action)
		switch action {
		case "getAvailability":
			s.getAvailability(w, r)
		case "getAllData":
			s.getAllData(w, r)
		case "exportBookings":
			s.exportBookings(w, r)
		default:
			s.writeError(w, "Invalid action")
		}
	case http.MethodPost:
		var req scriptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			metrics.IncHTTP("invalid")
			s.writeError(w, "Invalid request body")
			return
		}
		metrics.IncHTTP(req.Action)
		switch req.Action {
		case "createBooking":
			s.createBooking(w, r, req)
		case "approveBooking":
			s.decideBooking(w, r, req.BookingID, models.StatusConfirmed)
		case "rejectBooking":
			s.decideBooking(w, r, req.BookingID, models.StatusRejected)
		case "toggleBlock":
			s.toggleBlock(w, r, req)
		case "updatePrice":
			s.updatePrice(w, r, req)
		default:
			s.writeError(w, "Invalid action")
		}
	default:
		s.writeError(w, "Invalid action")
	}
}

func (s *HTTPServer) getAvailability(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if _, err := models.ParseDate(date); err != nil {
		s.writeError(w, "Invalid date")
		return
	}
	day, err := s.availability.GetDayAvailability(r.Context(), date)
	if err != nil {
		// Store trouble, not caller error; the caller may retry.
		s.serverError(w, err, "get availability")
		return
	}
	s.writeJSON(w, day)
}

func (s *HTTPServer) getAllData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	bookings, err := s.db.ListBookings(ctx)
	if err != nil {
		s.serverError(w, err, "list bookings")
		return
	}
	blocks, err := s.db.ListBlocked(ctx)
	if err != nil {
		s.serverError(w, err, "list blocks")
		return
	}
	configMap, err := s.db.LoadConfigMap(ctx)
	if err != nil {
		s.serverError(w, err, "load config")
		return
	}

	legacyBookings := make([]LegacyBooking, 0, len(bookings))
	for i := range bookings {
		legacyBookings = append(legacyBookings, toLegacyBooking(&bookings[i]))
	}
	legacyBlocks := make([]LegacyBlock, 0, len(blocks))
	for _, b := range blocks {
		legacyBlocks = append(legacyBlocks, LegacyBlock{Date: b.Date, SlotID: b.SlotID, Reason: b.Reason})
	}

	s.writeJSON(w, map[string]any{
		"bookings": legacyBookings,
		"blocked":  legacyBlocks,
		"config":   configMap,
	})
}

func (s *HTTPServer) exportBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.db.ListBookings(r.Context())
	if err != nil {
		s.serverError(w, err, "list bookings")
		return
	}

	filename := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if err := export.WriteBookingsWorkbook(w, bookings); err != nil {
		s.logger.Error().Err(err).Msg("export workbook failed")
	}
}

func (s *HTTPServer) createBooking(w http.ResponseWriter, r *http.Request, req scriptRequest) {
	booking, err := s.bookings.Create(r.Context(), serviceCreateRequest(req))
	if err != nil {
		s.writeError(w, createErrorMessage(err))
		return
	}
	s.writeJSON(w, map[string]any{
		"status":    "success",
		"bookingId": booking.ID,
	})
}

func (s *HTTPServer) decideBooking(w http.ResponseWriter, r *http.Request, bookingID, status string) {
	if _, err := s.bookings.SetStatus(r.Context(), bookingID, status); err != nil {
		switch {
		case errors.Is(err, database.ErrBookingNotFound):
			s.writeError(w, "Booking not found")
		case errors.Is(err, database.ErrSlotConflict):
			s.writeError(w, "Another booking for this slot is already confirmed")
		default:
			s.serverError(w, err, "update booking status")
		}
		return
	}
	s.writeJSON(w, map[string]any{"status": "success"})
}

func (s *HTTPServer) toggleBlock(w http.ResponseWriter, r *http.Request, req scriptRequest) {
	if _, err := models.ParseDate(req.Date); err != nil {
		s.writeError(w, "Invalid date")
		return
	}
	if !models.ValidSlotID(req.SlotID) {
		s.writeError(w, "Invalid slot")
		return
	}

	blocked, err := s.db.ToggleBlock(r.Context(), req.Date, req.SlotID, "")
	if err != nil {
		s.serverError(w, err, "toggle block")
		return
	}

	if s.bus != nil {
		_ = s.bus.PublishJSON(events.TypeSlotBlockToggled, events.BlockPayload{
			Date: req.Date, SlotID: req.SlotID, Blocked: blocked,
		})
	}
	s.availability.Invalidate(r.Context(), req.Date)

	result := "unblocked"
	if blocked {
		result = "blocked"
	}
	s.writeJSON(w, map[string]any{"status": "success", "action": result})
}

func (s *HTTPServer) updatePrice(w http.ResponseWriter, r *http.Request, req scriptRequest) {
	if req.Key == "" {
		s.writeError(w, "Config key is required")
		return
	}
	value, err := decodeConfigValue(req.Value)
	if err != nil {
		s.writeError(w, "Invalid config value")
		return
	}

	// Pricing keys must stay parseable; reject a write that would leave
	// the stored config invalid.
	current, err := s.db.LoadConfigMap(r.Context())
	if err != nil {
		s.serverError(w, err, "load config")
		return
	}
	current[req.Key] = value
	if _, err := models.ParsePricing(current); err != nil {
		s.writeError(w, "Invalid config value")
		return
	}

	if err := s.db.SetConfigValue(r.Context(), req.Key, value); err != nil {
		s.serverError(w, err, "set config value")
		return
	}

	if s.bus != nil {
		_ = s.bus.PublishJSON(events.TypeConfigUpdated, events.ConfigPayload{Key: req.Key, Value: value})
	}
	s.availability.InvalidateAll(r.Context())

	s.writeJSON(w, map[string]any{"status": "success"})
}

// decodeConfigValue accepts both string and numeric JSON values, since
// the dashboard sends prices as numbers and the UPI id as a string.
func decodeConfigValue(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("missing value")
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String(), nil
	}
	return "", fmt.Errorf("unsupported value type")
}

func serviceCreateRequest(req scriptRequest) service.CreateRequest {
	return service.CreateRequest{
		Date:       req.Date,
		SlotID:     req.SlotID,
		Name:       req.Name,
		Phone:      req.Phone,
		Amount:     req.Amount,
		PaymentRef: req.PaymentID,
		ImageData:  req.Image,
	}
}

func createErrorMessage(err error) string {
	switch {
	case errors.Is(err, database.ErrSlotAlreadyBooked):
		return "Slot already booked"
	case errors.Is(err, database.ErrSlotOnHold):
		return "Slot is currently on hold (Pending Approval)"
	case errors.Is(err, database.ErrSlotUnavailable):
		return "Slot could not be verified, please try again"
	case errors.Is(err, service.ErrAmountMismatch):
		return "Amount does not match the current price"
	default:
		return err.Error()
	}
}

func toLegacyBooking(b *models.Booking) LegacyBooking {
	return LegacyBooking{
		BookingID:     b.ID,
		Date:          b.Date,
		Slot:          b.SlotID,
		Name:          b.Name,
		Phone:         b.Phone,
		Email:         "N/A",
		Amount:        b.Amount,
		Status:        b.Status,
		Timestamp:     b.CreatedAt,
		PaymentID:     b.PaymentRef,
		ScreenshotURL: b.ProofURL,
	}
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("write response failed")
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, message string) {
	s.writeJSON(w, map[string]any{"status": "error", "message": message})
}

func (s *HTTPServer) serverError(w http.ResponseWriter, err error, what string) {
	s.logger.Error().Err(err).Msg(what + " failed")
	s.writeError(w, "Internal error, please try again")
}
