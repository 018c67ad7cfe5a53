package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository/postgres"
)

func TestInTxCommits(t *testing.T) {
	mock := newMock(t)
	store := postgres.NewStore(mock)

	mock.ExpectBegin()
	mock.ExpectExec(sqlPattern(setSlotStatusSQL)).
		WithArgs(int64(7), model.SlotStatusOpen, model.SlotStatusHeld).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		ok, err := tx.Slots().SetStatus(ctx, 7, model.SlotStatusOpen, model.SlotStatusHeld)
		require.True(t, ok)
		return err
	})
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxRollsBackOnError(t *testing.T) {
	mock := newMock(t)
	store := postgres.NewStore(mock)
	errTaken := errors.New("slot taken")

	mock.ExpectBegin()
	mock.ExpectExec(sqlPattern(setSlotStatusSQL)).
		WithArgs(int64(7), model.SlotStatusOpen, model.SlotStatusHeld).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		ok, err := tx.Slots().SetStatus(ctx, 7, model.SlotStatusOpen, model.SlotStatusHeld)
		if err != nil {
			return err
		}
		if !ok {
			return errTaken
		}
		return nil
	})
	assert.ErrorIs(t, err, errTaken)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxBeginFailure(t *testing.T) {
	mock := newMock(t)
	store := postgres.NewStore(mock)

	mock.ExpectBegin().WillReturnError(context.DeadlineExceeded)

	called := false
	err := store.InTx(context.Background(), func(context.Context, repository.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, repository.ErrUnavailable)
	assert.False(t, called)

	require.NoError(t, mock.ExpectationsWereMet())
}
