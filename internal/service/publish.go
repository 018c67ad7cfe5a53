package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/events"
	"github.com/Freeeeeet/consultation_scheduler/internal/model"
)

// publish hands a committed change to the bus. Delivery problems are logged only.
func publish(ctx context.Context, p events.Publisher, logger *zap.Logger, e events.Event) {
	if err := p.Publish(ctx, e); err != nil {
		logger.Warn("Failed to publish event",
			zap.String("type", string(e.Type)),
			zap.String("event_id", e.ID.String()),
			zap.Error(err),
		)
	}
}

func appointmentEvent(t events.Type, appt *model.Appointment, actorID int64, at time.Time) events.Event {
	e := events.New(t, at)
	e.AppointmentID = appt.ID
	e.SlotID = appt.SlotID
	e.StudentID = appt.StudentID
	e.TeacherID = appt.TeacherID
	e.ActorID = actorID
	return e
}

func slotEvent(t events.Type, slot *model.TimeSlot, actorID int64, at time.Time) events.Event {
	e := events.New(t, at)
	e.SlotID = slot.ID
	e.TeacherID = slot.TeacherID
	e.ActorID = actorID
	return e
}

// eventFor maps a target appointment status to its event type
func eventFor(status model.AppointmentStatus) events.Type {
	switch status {
	case model.AppointmentStatusApproved:
		return events.AppointmentApproved
	case model.AppointmentStatusRejected:
		return events.AppointmentRejected
	case model.AppointmentStatusCancelled:
		return events.AppointmentCancelled
	default:
		return events.AppointmentRequested
	}
}
