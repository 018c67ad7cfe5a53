package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository/postgres"
)

const setSlotStatusSQL = `UPDATE time_slots SET status = $3 WHERE id = $1 AND status = $2 AND withdrawn_at IS NULL`

func TestSlotSetStatus(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"status matched", 1, true},
		{"status moved on", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			repo := postgres.NewSlotRepository(mock)

			mock.ExpectExec(sqlPattern(setSlotStatusSQL)).
				WithArgs(int64(7), model.SlotStatusHeld, model.SlotStatusBooked).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			ok, err := repo.SetStatus(context.Background(), 7, model.SlotStatusHeld, model.SlotStatusBooked)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSlotSetStatusTransientFailure(t *testing.T) {
	mock := newMock(t)
	repo := postgres.NewSlotRepository(mock)

	mock.ExpectExec(sqlPattern(setSlotStatusSQL)).
		WithArgs(int64(7), model.SlotStatusOpen, model.SlotStatusHeld).
		WillReturnError(&pgconn.PgError{Code: "40001"})

	_, err := repo.SetStatus(context.Background(), 7, model.SlotStatusOpen, model.SlotStatusHeld)
	assert.ErrorIs(t, err, repository.ErrUnavailable)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotWithdraw(t *testing.T) {
	mock := newMock(t)
	repo := postgres.NewSlotRepository(mock)
	at := createdAt.Add(time.Hour)

	mock.ExpectExec(sqlPattern(`UPDATE time_slots SET withdrawn_at = $2 WHERE id = $1 AND status = 'open' AND withdrawn_at IS NULL`)).
		WithArgs(int64(7), at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.Withdraw(context.Background(), 7, at)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotCreate(t *testing.T) {
	insert := sqlPattern(`INSERT INTO time_slots (teacher_id, date, label, start_minute, status, recurring_id) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`)

	t.Run("assigns id", func(t *testing.T) {
		mock := newMock(t)
		repo := postgres.NewSlotRepository(mock)
		slot := &model.TimeSlot{TeacherID: 5, Date: slotDay, Label: "9:00-10:00", StartMinute: 540, Status: model.SlotStatusOpen}

		mock.ExpectQuery(insert).
			WithArgs(int64(5), slotDay, "9:00-10:00", 540, model.SlotStatusOpen, (*int64)(nil)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), createdAt))

		require.NoError(t, repo.Create(context.Background(), slot))
		assert.Equal(t, int64(11), slot.ID)
		assert.Equal(t, createdAt, slot.CreatedAt)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation", func(t *testing.T) {
		mock := newMock(t)
		repo := postgres.NewSlotRepository(mock)
		slot := &model.TimeSlot{TeacherID: 5, Date: slotDay, Label: "9:00-10:00", StartMinute: 540, Status: model.SlotStatusOpen}

		mock.ExpectQuery(insert).
			WithArgs(int64(5), slotDay, "9:00-10:00", 540, model.SlotStatusOpen, (*int64)(nil)).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "time_slots_unique_active"})

		err := repo.Create(context.Background(), slot)
		assert.ErrorIs(t, err, repository.ErrDuplicate)
		assert.Zero(t, slot.ID)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSlotLookups(t *testing.T) {
	t.Run("missing row", func(t *testing.T) {
		mock := newMock(t)
		repo := postgres.NewSlotRepository(mock)

		mock.ExpectQuery(sqlPattern(`FROM time_slots WHERE id = $1`)).
			WithArgs(int64(7)).
			WillReturnError(pgx.ErrNoRows)

		slot, err := repo.GetByID(context.Background(), 7)
		require.NoError(t, err)
		assert.Nil(t, slot)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("share lock", func(t *testing.T) {
		mock := newMock(t)
		repo := postgres.NewSlotRepository(mock)

		mock.ExpectQuery(sqlPattern(`FROM time_slots WHERE id = $1 FOR SHARE`)).
			WithArgs(int64(7)).
			WillReturnRows(slotRow(7, model.SlotStatusHeld))

		slot, err := repo.GetForShare(context.Background(), 7)
		require.NoError(t, err)
		require.NotNil(t, slot)
		assert.Equal(t, int64(7), slot.ID)
		assert.Equal(t, model.SlotStatusHeld, slot.Status)
		assert.Equal(t, 540, slot.StartMinute)
		assert.Nil(t, slot.RecurringID)
		assert.False(t, slot.IsWithdrawn())

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSlotStats(t *testing.T) {
	mock := newMock(t)
	repo := postgres.NewSlotRepository(mock)

	mock.ExpectQuery(sqlPattern(`FROM time_slots WHERE teacher_id = $1 AND withdrawn_at IS NULL`)).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"count", "open", "held", "booked"}).AddRow(4, 2, 1, 1))

	stats, err := repo.Stats(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStats{Published: 4, Open: 2, Held: 1, Booked: 1}, stats)
	assert.InDelta(t, 0.5, stats.BookingRate(), 1e-9)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotListOpen(t *testing.T) {
	mock := newMock(t)
	repo := postgres.NewSlotRepository(mock)

	rows := slotRow(7, model.SlotStatusOpen).
		AddRow(int64(8), int64(5), slotDay, "10:00-11:00", 600, model.SlotStatusOpen, (*int64)(nil), createdAt, (*time.Time)(nil))
	mock.ExpectQuery(sqlPattern(`AND date >= $2 ORDER BY date, start_minute, label`)).
		WithArgs(int64(5), slotDay).
		WillReturnRows(rows)

	slots, err := repo.ListOpen(context.Background(), 5, slotDay)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "10:00-11:00", slots[1].Label)

	require.NoError(t, mock.ExpectationsWereMet())
}
