package sheets

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"turfbook/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// statusColumn is the spreadsheet column holding the booking status.
const statusColumn = "H"

// SheetsService mirrors bookings into the legacy spreadsheet so staff
// keep their familiar view. The database stays authoritative; writes
// here are one-way.
type SheetsService struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string

	mu       sync.Mutex
	rowCache map[string]int
	logger   *zerolog.Logger
}

func NewSheetsService(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, logger *zerolog.Logger) (*SheetsService, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	return &SheetsService{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		rowCache:      make(map[string]int),
		logger:        logger,
	}, nil
}

// AppendBooking appends one booking as a new row and remembers which row
// it landed on for later status updates.
func (s *SheetsService) AppendBooking(ctx context.Context, b *models.Booking) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{bookingRowValues(b)}}

	resp, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.sheetName+"!A:K", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append booking row: %w", err)
	}

	if resp.Updates != nil {
		if row, ok := rowFromRange(resp.Updates.UpdatedRange); ok {
			s.setCachedRow(b.ID, row)
		}
	}

	s.logger.Info().Str("booking_id", b.ID).Msg("booking mirrored to sheet")
	return nil
}

// UpdateBookingStatus rewrites the status cell of the booking's row.
func (s *SheetsService) UpdateBookingStatus(ctx context.Context, b *models.Booking) error {
	row, ok := s.getCachedRow(b.ID)
	if !ok {
		var err error
		row, err = s.findBookingRow(ctx, b.ID)
		if err != nil {
			return err
		}
		s.setCachedRow(b.ID, row)
	}

	cell := fmt.Sprintf("%s!%s%d", s.sheetName, statusColumn, row)
	vr := &sheets.ValueRange{Values: [][]interface{}{{b.Status}}}

	_, err := s.svc.Spreadsheets.Values.
		Update(s.spreadsheetID, cell, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		// Stale cache means the row may have moved; drop and retry later.
		s.deleteCachedRow(b.ID)
		return fmt.Errorf("update status cell: %w", err)
	}

	s.logger.Info().Str("booking_id", b.ID).Str("status", b.Status).Msg("sheet status updated")
	return nil
}

// findBookingRow scans column A for the booking id.
func (s *SheetsService) findBookingRow(ctx context.Context, bookingID string) (int, error) {
	resp, err := s.svc.Spreadsheets.Values.
		Get(s.spreadsheetID, s.sheetName+"!A:A").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("read id column: %w", err)
	}

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if id, ok := row[0].(string); ok && id == bookingID {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("booking %s not found in sheet", bookingID)
}

// bookingRowValues lays a booking out in the legacy column order:
// id, date, slot, name, phone, email, amount, status, timestamp,
// payment reference, proof url.
func bookingRowValues(b *models.Booking) []interface{} {
	return []interface{}{
		b.ID,
		b.Date,
		b.SlotID,
		b.Name,
		b.Phone,
		"N/A",
		b.Amount,
		b.Status,
		b.CreatedAt,
		b.PaymentRef,
		b.ProofURL,
	}
}

// rowFromRange extracts the first row number out of an A1 range such as
// "Bookings!A42:K42".
func rowFromRange(a1 string) (int, bool) {
	_, ref, ok := strings.Cut(a1, "!")
	if !ok {
		return 0, false
	}
	start, _, _ := strings.Cut(ref, ":")
	digits := strings.TrimLeft(start, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	row, err := strconv.Atoi(digits)
	if err != nil || row <= 0 {
		return 0, false
	}
	return row, true
}

func (s *SheetsService) getCachedRow(bookingID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rowCache[bookingID]
	return row, ok
}

func (s *SheetsService) setCachedRow(bookingID string, row int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowCache[bookingID] = row
}

func (s *SheetsService) deleteCachedRow(bookingID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rowCache, bookingID)
}
