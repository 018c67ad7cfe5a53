package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
)

func TestCanTransition(t *testing.T) {
	all := []model.AppointmentStatus{
		model.AppointmentStatusPending,
		model.AppointmentStatusApproved,
		model.AppointmentStatusRejected,
		model.AppointmentStatusCancelled,
	}
	allowed := map[[2]model.AppointmentStatus]bool{
		{model.AppointmentStatusPending, model.AppointmentStatusApproved}:   true,
		{model.AppointmentStatusPending, model.AppointmentStatusRejected}:   true,
		{model.AppointmentStatusPending, model.AppointmentStatusCancelled}:  true,
		{model.AppointmentStatusApproved, model.AppointmentStatusCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]model.AppointmentStatus{from, to}]
			assert.Equal(t, want, model.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, st := range []model.AppointmentStatus{model.AppointmentStatusRejected, model.AppointmentStatusCancelled} {
		assert.True(t, st.IsTerminal())
		assert.False(t, st.IsActive())
		assert.Equal(t, model.SlotStatusOpen, st.SlotStatusFor())
	}
	assert.Equal(t, model.SlotStatusHeld, model.AppointmentStatusPending.SlotStatusFor())
	assert.Equal(t, model.SlotStatusBooked, model.AppointmentStatusApproved.SlotStatusFor())
}

func TestDecisionTarget(t *testing.T) {
	st, ok := model.DecisionApprove.Target()
	assert.True(t, ok)
	assert.Equal(t, model.AppointmentStatusApproved, st)

	st, ok = model.DecisionReject.Target()
	assert.True(t, ok)
	assert.Equal(t, model.AppointmentStatusRejected, st)

	_, ok = model.Decision("maybe").Target()
	assert.False(t, ok)
}

func TestParseAppointmentStatus(t *testing.T) {
	st, ok := model.ParseAppointmentStatus("approved")
	assert.True(t, ok)
	assert.Equal(t, model.AppointmentStatusApproved, st)

	_, ok = model.ParseAppointmentStatus("deleted")
	assert.False(t, ok)
}
