package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/consultation_scheduler/internal/apperr"
	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/service"
)

func TestPublishSlot(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	teacher := e.teacher(t, "T")
	student := e.student(t, "S", true)

	slot, err := e.slots.PublishSlot(ctx, teacher, slotDate, " 9:00-10:00 ")
	require.NoError(t, err)
	assert.Equal(t, "9:00-10:00", slot.Label)
	assert.Equal(t, 540, slot.StartMinute)
	assert.Equal(t, model.SlotStatusOpen, slot.Status)

	cases := []struct {
		name   string
		caller model.Caller
		date   time.Time
		label  string
		kind   apperr.Kind
	}{
		{"student", student, slotDate, "11:00-12:00", apperr.KindForbidden},
		{"malformed label", teacher, slotDate, "9-10", apperr.KindInvalidInput},
		{"end before start", teacher, slotDate, "10:00-9:00", apperr.KindInvalidInput},
		{"past date", teacher, now.AddDate(0, 0, -1), "11:00-12:00", apperr.KindInvalidInput},
		{"duplicate", teacher, slotDate, "9:00-10:00", apperr.KindDuplicate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.slots.PublishSlot(ctx, tc.caller, tc.date, tc.label)
			assert.Equal(t, tc.kind, apperr.KindOf(err))
		})
	}

	// today is still publishable
	_, err = e.slots.PublishSlot(ctx, teacher, now, "18:00-19:00")
	assert.NoError(t, err)
}

func TestDuplicateCoversReservedSlots(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	teacher := e.teacher(t, "T")
	student := e.student(t, "S", true)
	slot := e.slot(t, teacher, "9:00-10:00")

	_, err := e.booking.RequestBooking(ctx, student, slot.ID, "help")
	require.NoError(t, err)

	_, err = e.slots.PublishSlot(ctx, teacher, slotDate, "9:00-10:00")
	assert.ErrorIs(t, err, apperr.ErrDuplicate)
}

func TestDuplicateIgnoresLabelSpelling(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	teacher := e.teacher(t, "T")

	first, err := e.slots.PublishSlot(ctx, teacher, slotDate, "09:00-10:00")
	require.NoError(t, err)
	assert.Equal(t, "9:00-10:00", first.Label)

	_, err = e.slots.PublishSlot(ctx, teacher, slotDate, "9:00-10:00")
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	open, err := e.slots.ListOpenSlots(ctx, teacher.ID, slotDate)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestWeeklyLabelsAreCanonical(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	teacher := e.teacher(t, "T")

	// Monday 2025-02-24 at 9:00 collides with the weekly slot below
	_, err := e.slots.PublishSlot(ctx, teacher, time.Date(2025, 2, 24, 0, 0, 0, 0, time.UTC), "9:00-10:00")
	require.NoError(t, err)

	_, created, err := e.slots.PublishWeekly(ctx, teacher, []int{1}, "09:00-10:00", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	open, err := e.slots.ListOpenSlots(ctx, teacher.ID, time.Time{})
	require.NoError(t, err)
	require.Len(t, open, 2)
	for _, s := range open {
		assert.Equal(t, "9:00-10:00", s.Label)
	}
}

func TestListOpenSlotsOrdering(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	teacher := e.teacher(t, "T")

	labels := []string{"14:00-15:00", "9:00-10:00", "10:30-11:00"}
	for _, l := range labels {
		e.slot(t, teacher, l)
	}
	_, err := e.slots.PublishSlot(ctx, teacher, slotDate.AddDate(0, 0, -1), "16:00-17:00")
	require.NoError(t, err)

	open, err := e.slots.ListOpenSlots(ctx, teacher.ID, time.Time{})
	require.NoError(t, err)

	var got []string
	for _, s := range open {
		got = append(got, s.Date.Format(time.DateOnly)+" "+s.Label)
	}
	assert.Equal(t, []string{
		"2025-02-28 16:00-17:00",
		"2025-03-01 9:00-10:00",
		"2025-03-01 10:30-11:00",
		"2025-03-01 14:00-15:00",
	}, got)

	open, err = e.slots.ListOpenSlots(ctx, teacher.ID, slotDate)
	require.NoError(t, err)
	assert.Len(t, open, 3)
}

func TestWithdrawSlot(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	teacher := e.teacher(t, "T")
	other := e.teacher(t, "T2")
	student := e.student(t, "S", true)

	open := e.slot(t, teacher, "9:00-10:00")
	held := e.slot(t, teacher, "10:00-11:00")
	_, err := e.booking.RequestBooking(ctx, student, held.ID, "help")
	require.NoError(t, err)

	err = e.slots.WithdrawSlot(ctx, other, open.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	err = e.slots.WithdrawSlot(ctx, teacher, held.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, apperr.ReasonSlotNotOpen, apperr.ReasonOf(err))

	require.NoError(t, e.slots.WithdrawSlot(ctx, teacher, open.ID))

	err = e.slots.WithdrawSlot(ctx, teacher, open.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	list, err := e.slots.ListOpenSlots(ctx, teacher.ID, slotDate)
	require.NoError(t, err)
	assert.Empty(t, list)

	// the label is free again after withdrawal
	_, err = e.slots.PublishSlot(ctx, teacher, slotDate, "9:00-10:00")
	assert.NoError(t, err)
}

func TestPublishWeekly(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	teacher := e.teacher(t, "T")
	student := e.student(t, "S", true)

	_, _, err := e.slots.PublishWeekly(ctx, student, []int{1}, "9:00-10:00", 2)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, _, err = e.slots.PublishWeekly(ctx, teacher, []int{7}, "9:00-10:00", 2)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, _, err = e.slots.PublishWeekly(ctx, teacher, nil, "9:00-10:00", 2)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	// now is Thursday 2025-02-20 10:00; the Thursday 9:00 slot today has started
	groupID, created, err := e.slots.PublishWeekly(ctx, teacher, []int{1, 4, 4}, "9:00-10:00", 2)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, groupID)
	assert.Equal(t, 3, created)

	open, err := e.slots.ListOpenSlots(ctx, teacher.ID, time.Time{})
	require.NoError(t, err)
	var dates []string
	for _, s := range open {
		dates = append(dates, s.Date.Format(time.DateOnly))
		require.NotNil(t, s.RecurringID)
	}
	assert.Equal(t, []string{"2025-02-24", "2025-02-27", "2025-03-03"}, dates)

	// regeneration skips what exists
	created, err = e.slots.GenerateRecurringSlots(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, created)

	created, err = e.slots.GenerateRecurringSlots(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	other := e.teacher(t, "T2")
	assert.ErrorIs(t, e.slots.StopWeekly(ctx, other, groupID), apperr.ErrForbidden)
	assert.ErrorIs(t, e.slots.StopWeekly(ctx, teacher, uuid.New()), apperr.ErrNotFound)
	require.NoError(t, e.slots.StopWeekly(ctx, teacher, groupID))

	created, err = e.slots.GenerateRecurringSlots(ctx, 6)
	require.NoError(t, err)
	assert.Zero(t, created)

	open, err = e.slots.ListOpenSlots(ctx, teacher.ID, time.Time{})
	require.NoError(t, err)
	assert.Len(t, open, 5)
}

func TestWeeksAheadBounds(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	teacher := e.teacher(t, "T")

	_, _, err := e.slots.PublishWeekly(ctx, teacher, []int{1}, "9:00-10:00", service.MaxWeeksAhead+1)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, created, err := e.slots.PublishWeekly(ctx, teacher, []int{1}, "9:00-10:00", 0)
	require.NoError(t, err)
	assert.Equal(t, service.DefaultWeeksAhead, created)
}
