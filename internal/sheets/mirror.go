package sheets

import (
	"context"
	"errors"
	"time"

	"turfbook/internal/database"
	"turfbook/internal/metrics"
	"turfbook/internal/models"

	"github.com/rs/zerolog"
)

const mirrorBatchSize = 20

// TaskSource is the queue side of the mirror.
type TaskSource interface {
	DequeueSheetSync(ctx context.Context, limit int) ([]database.SyncTask, error)
	MarkSyncDone(ctx context.Context, id int64) error
	MarkSyncFailed(ctx context.Context, id int64, cause string) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
}

// SheetWriter is the spreadsheet side of the mirror.
type SheetWriter interface {
	AppendBooking(ctx context.Context, b *models.Booking) error
	UpdateBookingStatus(ctx context.Context, b *models.Booking) error
}

// Mirror drains the sync queue into the spreadsheet in the background.
type Mirror struct {
	tasks    TaskSource
	sheet    SheetWriter
	interval time.Duration
	logger   *zerolog.Logger
}

func NewMirror(tasks TaskSource, sheet SheetWriter, interval time.Duration, logger *zerolog.Logger) *Mirror {
	return &Mirror{tasks: tasks, sheet: sheet, interval: interval, logger: logger}
}

// Run polls the queue until the context is cancelled.
func (m *Mirror) Run(ctx context.Context) {
	m.logger.Info().Dur("interval", m.interval).Msg("sheet mirror started")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Msg("sheet mirror stopped")
			return
		case <-ticker.C:
			m.drain(ctx)
		}
	}
}

func (m *Mirror) drain(ctx context.Context) {
	batch, err := m.tasks.DequeueSheetSync(ctx, mirrorBatchSize)
	if err != nil {
		m.logger.Error().Err(err).Msg("dequeue sheet sync tasks failed")
		return
	}

	for _, task := range batch {
		if err := m.process(ctx, task); err != nil {
			metrics.IncSheetSync("error")
			m.logger.Warn().Err(err).
				Int64("task_id", task.ID).
				Str("booking_id", task.BookingID).
				Msg("sheet sync task failed")
			if err := m.tasks.MarkSyncFailed(ctx, task.ID, err.Error()); err != nil {
				m.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark sync failed errored")
			}
			continue
		}
		metrics.IncSheetSync("ok")
		if err := m.tasks.MarkSyncDone(ctx, task.ID); err != nil {
			m.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark sync done errored")
		}
	}
}

func (m *Mirror) process(ctx context.Context, task database.SyncTask) error {
	booking, err := m.tasks.GetBooking(ctx, task.BookingID)
	if err != nil {
		// A deleted booking cannot be mirrored; treat as terminal.
		if errors.Is(err, database.ErrBookingNotFound) {
			m.logger.Warn().Str("booking_id", task.BookingID).Msg("sync task for missing booking dropped")
			return nil
		}
		return err
	}

	switch task.TaskType {
	case database.SyncTaskAppend:
		return m.sheet.AppendBooking(ctx, booking)
	case database.SyncTaskUpdateStatus:
		return m.sheet.UpdateBookingStatus(ctx, booking)
	default:
		m.logger.Warn().Str("task_type", task.TaskType).Msg("unknown sync task type dropped")
		return nil
	}
}
