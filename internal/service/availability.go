package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"turfbook/internal/metrics"
	"turfbook/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const availabilityKeyPrefix = "availability:"

// AvailabilityRepo is the slice of the store the reader needs.
type AvailabilityRepo interface {
	GetBookingsByDate(ctx context.Context, date string) ([]models.Booking, error)
	ListBlockedByDate(ctx context.Context, date string) ([]models.BlockedSlot, error)
	LoadConfigMap(ctx context.Context) (map[string]string, error)
}

// DayAvailability is the availability view for one calendar day, shaped
// for the legacy script contract.
type DayAvailability struct {
	Booked  []string          `json:"booked"`
	Blocked []string          `json:"blocked"`
	Pricing map[string]string `json:"pricing"`
}

// AvailabilityService computes which slots are taken for a date. It has
// no side effects on the store; results may be cached in redis.
type AvailabilityService struct {
	repo       AvailabilityRepo
	redis      *redis.Client
	cacheTTL   time.Duration
	holdWindow time.Duration
	logger     *zerolog.Logger
}

func NewAvailabilityService(
	repo AvailabilityRepo,
	redisClient *redis.Client,
	cacheTTL time.Duration,
	holdWindow time.Duration,
	logger *zerolog.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		repo:       repo,
		redis:      redisClient,
		cacheTTL:   cacheTTL,
		holdWindow: holdWindow,
		logger:     logger,
	}
}

// GetDayAvailability returns booked slots, blocked slots and the pricing
// map for a date. A slot is booked when a CONFIRMED record exists or a
// PENDING record still holds its soft lock; an expired PENDING record no
// longer blocks the slot even though the row remains.
func (s *AvailabilityService) GetDayAvailability(ctx context.Context, date string) (*DayAvailability, error) {
	if _, err := models.ParseDate(date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	if cached := s.readCache(ctx, date); cached != nil {
		return cached, nil
	}

	day, err := s.compute(ctx, date)
	if err != nil {
		return nil, err
	}

	s.writeCache(ctx, date, day)
	return day, nil
}

func (s *AvailabilityService) compute(ctx context.Context, date string) (*DayAvailability, error) {
	bookings, err := s.repo.GetBookingsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	now := time.Now()
	booked := make([]string, 0)
	seen := make(map[string]bool)
	for i := range bookings {
		b := &bookings[i]
		if !b.HoldsSlot(now, s.holdWindow) {
			continue
		}
		if !seen[b.SlotID] {
			seen[b.SlotID] = true
			booked = append(booked, b.SlotID)
		}
	}

	blocks, err := s.repo.ListBlockedByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}
	blocked := make([]string, 0, len(blocks))
	for _, bl := range blocks {
		blocked = append(blocked, bl.SlotID)
	}

	pricing, err := s.repo.LoadConfigMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &DayAvailability{Booked: booked, Blocked: blocked, Pricing: pricing}, nil
}

// Invalidate drops the cached view for one date.
func (s *AvailabilityService) Invalidate(ctx context.Context, date string) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.redis.Del(ctx, availabilityKeyPrefix+date).Err(); err != nil {
		s.logger.Warn().Err(err).Str("date", date).Msg("availability cache invalidation failed")
	}
}

// InvalidateAll drops every cached day; used when pricing changes, which
// affects all dates at once.
func (s *AvailabilityService) InvalidateAll(ctx context.Context) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}
	iter := s.redis.Scan(ctx, 0, availabilityKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.redis.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Warn().Err(err).Str("key", iter.Val()).Msg("availability cache invalidation failed")
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("availability cache scan failed")
	}
}

func (s *AvailabilityService) readCache(ctx context.Context, date string) *DayAvailability {
	if s.redis == nil || s.cacheTTL <= 0 {
		return nil
	}
	val, err := s.redis.Get(ctx, availabilityKeyPrefix+date).Result()
	if err != nil {
		metrics.IncAvailabilityCache("miss")
		return nil
	}
	var day DayAvailability
	if err := json.Unmarshal([]byte(val), &day); err != nil {
		metrics.IncAvailabilityCache("miss")
		return nil
	}
	metrics.IncAvailabilityCache("hit")
	return &day
}

func (s *AvailabilityService) writeCache(ctx context.Context, date string, day *DayAvailability) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(day)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, availabilityKeyPrefix+date, data, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("date", date).Msg("availability cache write failed")
	}
}
