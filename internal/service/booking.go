package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"turfbook/internal/database"
	"turfbook/internal/events"
	"turfbook/internal/metrics"
	"turfbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrAmountMismatch means the client-supplied amount does not equal the
// price the current config yields for the slot.
var ErrAmountMismatch = errors.New("amount does not match the slot price")

// BookingRepo is the slice of the store the booking flow writes through.
type BookingRepo interface {
	CreateBooking(ctx context.Context, b *models.Booking, holdWindow time.Duration) error
	UpdateBookingStatus(ctx context.Context, id, newStatus string) (*models.Booking, error)
	EnqueueSheetSync(ctx context.Context, taskType, bookingID string) error
	LoadConfigMap(ctx context.Context) (map[string]string, error)
}

// ProofStore persists a payment proof image and returns a public URL.
type ProofStore interface {
	SaveDataURL(dataURL, hint string) (string, error)
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	PublishJSON(eventType string, payload any) error
}

// Invalidator drops cached availability after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, date string)
}

// CreateRequest carries the fields of a new booking attempt.
type CreateRequest struct {
	Date       string
	SlotID     string
	Name       string
	Phone      string
	Amount     float64
	PaymentRef string
	ImageData  string
}

// BookingService owns the booking lifecycle: creation with slot
// contention checks, and the admin confirm/reject decision.
type BookingService struct {
	repo       BookingRepo
	proofs     ProofStore
	bus        EventPublisher
	cache      Invalidator
	holdWindow time.Duration
	logger     *zerolog.Logger
}

func NewBookingService(
	repo BookingRepo,
	proofs ProofStore,
	bus EventPublisher,
	cache Invalidator,
	holdWindow time.Duration,
	logger *zerolog.Logger,
) *BookingService {
	return &BookingService{
		repo:       repo,
		proofs:     proofs,
		bus:        bus,
		cache:      cache,
		holdWindow: holdWindow,
		logger:     logger,
	}
}

// Create validates the request, stores the payment proof and inserts the
// booking as PENDING. Slot contention surfaces as the database sentinel
// errors; callers map those to user-facing messages.
func (s *BookingService) Create(ctx context.Context, req CreateRequest) (*models.Booking, error) {
	day, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", req.Date, err)
	}
	hour, err := models.SlotHour(req.SlotID)
	if err != nil {
		return nil, fmt.Errorf("invalid slot %q", req.SlotID)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	if strings.TrimSpace(req.Phone) == "" {
		return nil, fmt.Errorf("phone is required")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	if err := s.checkAmount(ctx, day, hour, req.Amount); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ID:         uuid.New().String(),
		Date:       req.Date,
		SlotID:     req.SlotID,
		Name:       strings.TrimSpace(req.Name),
		Phone:      strings.TrimSpace(req.Phone),
		Amount:     req.Amount,
		Status:     models.StatusPending,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		PaymentRef: "N/A",
		ProofURL:   "N/A",
	}
	if strings.TrimSpace(req.PaymentRef) != "" {
		booking.PaymentRef = strings.TrimSpace(req.PaymentRef)
	}
	booking.ProofURL = s.storeProof(req.ImageData, booking.ID)

	if err := s.repo.CreateBooking(ctx, booking, s.holdWindow); err != nil {
		switch {
		case err == database.ErrSlotAlreadyBooked:
			metrics.IncSlotRefusal("confirmed")
		case err == database.ErrSlotOnHold:
			metrics.IncSlotRefusal("on_hold")
		case err == database.ErrSlotUnavailable:
			metrics.IncSlotRefusal("unavailable")
		}
		return nil, err
	}

	metrics.IncBookingCreated()
	s.afterWrite(ctx, events.TypeBookingCreated, booking)
	s.enqueueSync(ctx, database.SyncTaskAppend, booking.ID)
	return booking, nil
}

// SetStatus applies an admin decision. Only CONFIRMED and REJECTED are
// accepted; confirming a slot that already carries another CONFIRMED
// booking fails with ErrSlotConflict.
func (s *BookingService) SetStatus(ctx context.Context, bookingID, status string) (*models.Booking, error) {
	if status != models.StatusConfirmed && status != models.StatusRejected {
		return nil, fmt.Errorf("unsupported status %q", status)
	}
	if strings.TrimSpace(bookingID) == "" {
		return nil, fmt.Errorf("booking id is required")
	}

	booking, err := s.repo.UpdateBookingStatus(ctx, bookingID, status)
	if err != nil {
		return nil, err
	}

	metrics.IncAdminDecision(status)
	eventType := events.TypeBookingConfirmed
	if status == models.StatusRejected {
		eventType = events.TypeBookingRejected
	}
	s.afterWrite(ctx, eventType, booking)
	s.enqueueSync(ctx, database.SyncTaskUpdateStatus, booking.ID)
	return booking, nil
}

// checkAmount recomputes the slot price from the stored config and
// refuses a booking whose amount disagrees. The price shown to the
// customer comes from the same config, so a mismatch means a stale page
// or a tampered request.
func (s *BookingService) checkAmount(ctx context.Context, day time.Time, hour int, amount float64) error {
	raw, err := s.repo.LoadConfigMap(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	pricing, err := models.ParsePricing(raw)
	if err != nil {
		return fmt.Errorf("stored pricing invalid: %w", err)
	}
	if expected := pricing.PriceFor(day, hour); amount != expected {
		s.logger.Warn().
			Float64("amount", amount).
			Float64("expected", expected).
			Msg("booking amount mismatch")
		return ErrAmountMismatch
	}
	return nil
}

// storeProof saves the payment screenshot. Upload failures must not lose
// the booking; the row keeps an error marker instead of a URL.
func (s *BookingService) storeProof(dataURL, bookingID string) string {
	if strings.TrimSpace(dataURL) == "" || s.proofs == nil {
		return "N/A"
	}
	url, err := s.proofs.SaveDataURL(dataURL, bookingID)
	if err != nil {
		s.logger.Error().Err(err).Str("booking_id", bookingID).Msg("payment proof upload failed")
		return "Error: " + err.Error()
	}
	return url
}

func (s *BookingService) afterWrite(ctx context.Context, eventType string, b *models.Booking) {
	if s.bus != nil {
		err := s.bus.PublishJSON(eventType, events.BookingPayload{
			BookingID: b.ID,
			Date:      b.Date,
			SlotID:    b.SlotID,
			Name:      b.Name,
			Phone:     b.Phone,
			Amount:    b.Amount,
			Status:    b.Status,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("event", eventType).Msg("event publish failed")
		}
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, b.Date)
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, taskType, bookingID string) {
	if err := s.repo.EnqueueSheetSync(ctx, taskType, bookingID); err != nil {
		s.logger.Warn().Err(err).Str("booking_id", bookingID).Msg("sheet sync enqueue failed")
	}
}
