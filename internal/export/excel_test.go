package export

import (
	"bytes"
	"testing"

	"turfbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteBookingsWorkbook(t *testing.T) {
	bookings := []models.Booking{
		{
			ID: "bk-1", Date: "2026-05-01", SlotID: "slot-10",
			Name: "First Customer", Phone: "111", Amount: 800,
			Status: "CONFIRMED", CreatedAt: "2026-04-30T10:00:00Z",
			PaymentRef: "UPI-1", ProofURL: "N/A",
		},
		{
			ID: "bk-2", Date: "2026-05-02", SlotID: "slot-19",
			Name: "Second Customer", Phone: "222", Amount: 1200,
			Status: "PENDING", CreatedAt: "2026-05-01T09:00:00Z",
			PaymentRef: "N/A", ProofURL: "N/A",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBookingsWorkbook(&buf, bookings))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Booking ID", rows[0][0])
	assert.Equal(t, "bk-1", rows[1][0])
	assert.Equal(t, "slot-10", rows[1][2])
	assert.Equal(t, "CONFIRMED", rows[1][6])
	assert.Equal(t, "bk-2", rows[2][0])
}

func TestWriteBookingsWorkbookEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBookingsWorkbook(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
