package postgres_test

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
)

var (
	createdAt = time.Date(2025, 2, 20, 10, 0, 0, 0, time.UTC)
	slotDay   = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	slotCols        = []string{"id", "teacher_id", "date", "label", "start_minute", "status", "recurring_id", "created_at", "withdrawn_at"}
	appointmentCols = []string{"id", "student_id", "teacher_id", "slot_id", "purpose", "status", "created_at", "updated_at"}
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

// sqlPattern matches query regardless of how its whitespace is laid out
func sqlPattern(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(words, `\s+`)
}

func slotRow(id int64, status model.SlotStatus) *pgxmock.Rows {
	return pgxmock.NewRows(slotCols).
		AddRow(id, int64(5), slotDay, "9:00-10:00", 540, status, (*int64)(nil), createdAt, (*time.Time)(nil))
}

func appointmentRow(rows *pgxmock.Rows, id, slotID int64, status model.AppointmentStatus) *pgxmock.Rows {
	return rows.AddRow(id, int64(3), int64(5), slotID, "help", status, createdAt, createdAt)
}
