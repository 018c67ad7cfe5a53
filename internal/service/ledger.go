package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/apperr"
	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
)

// actorRule decides whether the caller may drive a transition of the appointment
type actorRule func(caller model.Caller, appt *model.Appointment) bool

func owningTeacher(caller model.Caller, appt *model.Appointment) bool {
	return caller.IsTeacher() && caller.ID == appt.TeacherID
}

func owningStudent(caller model.Caller, appt *model.Appointment) bool {
	return caller.IsStudent() && caller.ID == appt.StudentID
}

func eitherParty(caller model.Caller, appt *model.Appointment) bool {
	return owningTeacher(caller, appt) || owningStudent(caller, appt)
}

type edge struct {
	from, to model.AppointmentStatus
}

// guards is the single authorization table of the appointment state machine.
// Creation into pending is guarded by RequestBooking.
var guards = map[edge]actorRule{
	{model.AppointmentStatusPending, model.AppointmentStatusApproved}:   owningTeacher,
	{model.AppointmentStatusPending, model.AppointmentStatusRejected}:   owningTeacher,
	{model.AppointmentStatusPending, model.AppointmentStatusCancelled}:  owningStudent,
	{model.AppointmentStatusApproved, model.AppointmentStatusCancelled}: eitherParty,
}

// authorize evaluates the guard for appt.Status -> to. When the edge does not
// exist from the current status, the caller is checked against any edge into
// the target so that outsiders get Forbidden rather than learning the state.
func authorize(caller model.Caller, appt *model.Appointment, to model.AppointmentStatus) (allowed, edgeExists bool) {
	if rule, ok := guards[edge{appt.Status, to}]; ok {
		return rule(caller, appt), true
	}

	for e, rule := range guards {
		if e.to == to && rule(caller, appt) {
			return true, false
		}
	}
	return false, false
}

// transition moves a locked appointment to the target status together with its
// slot. The slot must be in the status the current appointment state implies;
// anything else is an invariant violation and nothing is written.
func transition(ctx context.Context, op string, tx repository.Tx, appt *model.Appointment, to model.AppointmentStatus, at time.Time) error {
	if !model.CanTransition(appt.Status, to) {
		return apperr.Conflict(op, apperr.ReasonAppointmentResolved, fmt.Sprintf("appointment is %s", appt.Status))
	}

	expected := appt.Status.SlotStatusFor()

	slot, err := tx.Slots().GetByID(ctx, appt.SlotID)
	if err != nil {
		return err
	}
	if slot == nil || slot.IsWithdrawn() || slot.Status != expected {
		return apperr.Invariant(op, invariantMessage(appt, slot, expected))
	}

	ok, err := tx.Appointments().SetStatus(ctx, appt.ID, appt.Status, to, at)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict(op, apperr.ReasonAppointmentResolved, "appointment changed concurrently")
	}

	switch to {
	case model.AppointmentStatusApproved:
		ok, err = bookSlot(ctx, tx, appt.SlotID)
	default:
		ok, err = releaseSlot(ctx, tx, appt.SlotID, expected)
	}
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Invariant(op, fmt.Sprintf("slot %d left status %s during transition", appt.SlotID, expected))
	}

	appt.Status = to
	appt.UpdatedAt = at
	return nil
}

func invariantMessage(appt *model.Appointment, slot *model.TimeSlot, expected model.SlotStatus) string {
	switch {
	case slot == nil:
		return fmt.Sprintf("appointment %d references missing slot %d", appt.ID, appt.SlotID)
	case slot.IsWithdrawn():
		return fmt.Sprintf("appointment %d (%s) references withdrawn slot %d", appt.ID, appt.Status, slot.ID)
	default:
		return fmt.Sprintf("appointment %d is %s but slot %d is %s, expected %s", appt.ID, appt.Status, slot.ID, slot.Status, expected)
	}
}
