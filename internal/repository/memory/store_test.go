package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository/memory"
)

var day = time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC)

func newSlot(t *testing.T, store *memory.Store, teacherID int64, label string) *model.TimeSlot {
	t.Helper()
	start, _, err := model.ParseLabel(label)
	require.NoError(t, err)

	slot := &model.TimeSlot{TeacherID: teacherID, Date: day, Label: label, StartMinute: start, Status: model.SlotStatusOpen}
	require.NoError(t, store.Slots().Create(context.Background(), slot))
	return slot
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	slot := newSlot(t, store, 1, "9:00-10:00")

	boom := errors.New("boom")
	err := store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		ok, err := tx.Slots().SetStatus(ctx, slot.ID, model.SlotStatusOpen, model.SlotStatusHeld)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, tx.Appointments().Create(ctx, &model.Appointment{
			StudentID: 2, TeacherID: 1, SlotID: slot.ID, Purpose: "p", Status: model.AppointmentStatusPending,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Slots().GetByID(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusOpen, got.Status)

	appts, err := store.Appointments().ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, appts)
}

func TestInTxCommits(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	slot := newSlot(t, store, 1, "9:00-10:00")

	err := store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		_, err := tx.Slots().SetStatus(ctx, slot.ID, model.SlotStatusOpen, model.SlotStatusHeld)
		return err
	})
	require.NoError(t, err)

	got, _ := store.Slots().GetByID(ctx, slot.ID)
	assert.Equal(t, model.SlotStatusHeld, got.Status)
}

func TestSetStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	slot := newSlot(t, store, 1, "9:00-10:00")

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Slots().SetStatus(ctx, slot.ID, model.SlotStatusOpen, model.SlotStatusHeld)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestDuplicateActiveSlot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	slot := newSlot(t, store, 1, "9:00-10:00")

	err := store.Slots().Create(ctx, &model.TimeSlot{TeacherID: 1, Date: day, Label: "9:00-10:00", Status: model.SlotStatusOpen})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	ok, err := store.Slots().Withdraw(ctx, slot.ID, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	err = store.Slots().Create(ctx, &model.TimeSlot{TeacherID: 1, Date: day, Label: "9:00-10:00", Status: model.SlotStatusOpen})
	assert.NoError(t, err)
}

func TestListOpenOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	late := newSlot(t, store, 1, "14:00-15:00")
	early := newSlot(t, store, 1, "9:00-10:00")
	held := newSlot(t, store, 1, "11:00-12:00")
	newSlot(t, store, 2, "9:00-10:00")

	_, err := store.Slots().SetStatus(ctx, held.ID, model.SlotStatusOpen, model.SlotStatusHeld)
	require.NoError(t, err)

	slots, err := store.Slots().ListOpen(ctx, 1, day)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, early.ID, slots[0].ID)
	assert.Equal(t, late.ID, slots[1].ID)

	slots, err = store.Slots().ListOpen(ctx, 1, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestOneActiveAppointmentPerSlot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	appt := &model.Appointment{StudentID: 2, TeacherID: 1, SlotID: 7, Purpose: "p", Status: model.AppointmentStatusPending}
	require.NoError(t, store.Appointments().Create(ctx, appt))

	err := store.Appointments().Create(ctx, &model.Appointment{StudentID: 3, TeacherID: 1, SlotID: 7, Purpose: "p", Status: model.AppointmentStatusPending})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	ok, err := store.Appointments().SetStatus(ctx, appt.ID, model.AppointmentStatusPending, model.AppointmentStatusRejected, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	err = store.Appointments().Create(ctx, &model.Appointment{StudentID: 3, TeacherID: 1, SlotID: 7, Purpose: "p", Status: model.AppointmentStatusPending})
	assert.NoError(t, err)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	slot := newSlot(t, store, 1, "9:00-10:00")

	got, _ := store.Slots().GetByID(ctx, slot.ID)
	got.Status = model.SlotStatusBooked

	again, _ := store.Slots().GetByID(ctx, slot.ID)
	assert.Equal(t, model.SlotStatusOpen, again.Status)
}

func TestApproveOnlyUnapprovedStudents(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	student := &model.User{Role: model.RoleStudent, DisplayName: "s"}
	teacher := &model.User{Role: model.RoleTeacher, DisplayName: "t"}
	require.NoError(t, store.Users().Create(ctx, student))
	require.NoError(t, store.Users().Create(ctx, teacher))

	ok, err := store.Users().Approve(ctx, student.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = store.Users().Approve(ctx, student.ID)
	assert.False(t, ok)

	ok, _ = store.Users().Approve(ctx, teacher.ID)
	assert.False(t, ok)
}
