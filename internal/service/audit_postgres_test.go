package service_test

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/events"
	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository/postgres"
	"github.com/Freeeeeet/consultation_scheduler/internal/service"
)

func sqlPattern(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(words, `\s+`)
}

// Audit must lock the slot before reading its appointments, otherwise a
// transition committing between the two reads looks like a broken pairing.
func TestAuditLocksSlotBeforeReadingAppointments(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	bus := events.NewBus(events.BusConfig{Logger: zap.NewNop()})
	t.Cleanup(func() { _ = bus.Close() })
	booking := service.NewBookingService(postgres.NewStore(mock), bus, zap.NewNop(),
		service.WithClock(func() time.Time { return now }))

	slotCols := []string{"id", "teacher_id", "date", "label", "start_minute", "status", "recurring_id", "created_at", "withdrawn_at"}
	apptCols := []string{"id", "student_id", "teacher_id", "slot_id", "purpose", "status", "created_at", "updated_at"}
	slotRows := func() *pgxmock.Rows {
		return pgxmock.NewRows(slotCols).
			AddRow(int64(7), int64(5), slotDate, "9:00-10:00", 540, model.SlotStatusHeld, (*int64)(nil), now, (*time.Time)(nil))
	}
	apptRows := func() *pgxmock.Rows {
		return pgxmock.NewRows(apptCols).
			AddRow(int64(1), int64(3), int64(5), int64(7), "help", model.AppointmentStatusPending, now, now)
	}

	mock.ExpectQuery(sqlPattern(`FROM time_slots WHERE status IN ('held', 'booked')`)).WillReturnRows(slotRows())
	mock.ExpectQuery(sqlPattern(`FROM appointments WHERE status IN ('pending', 'approved')`)).WillReturnRows(apptRows())
	mock.ExpectBegin()
	mock.ExpectQuery(sqlPattern(`FROM time_slots WHERE id = $1 FOR SHARE`)).WithArgs(int64(7)).WillReturnRows(slotRows())
	mock.ExpectQuery(sqlPattern(`FROM appointments WHERE slot_id = $1 ORDER BY`)).WithArgs(int64(7)).WillReturnRows(apptRows())
	mock.ExpectCommit()

	issues, err := booking.Audit(context.Background())
	require.NoError(t, err)
	assert.Empty(t, issues)

	require.NoError(t, mock.ExpectationsWereMet())
}
