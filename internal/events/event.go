// Package events carries domain events from the scheduling services to
// projections and notifiers. Events are published after the change that
// produced them has committed.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	AppointmentRequested Type = "appointment.requested"
	AppointmentApproved  Type = "appointment.approved"
	AppointmentRejected  Type = "appointment.rejected"
	AppointmentCancelled Type = "appointment.cancelled"
	SlotPublished        Type = "slot.published"
	SlotWithdrawn        Type = "slot.withdrawn"
)

// Event is a fact about a committed change. Fields that do not apply to the
// event type are zero.
type Event struct {
	ID            uuid.UUID `json:"id"`
	Type          Type      `json:"type"`
	AppointmentID int64     `json:"appointment_id,omitempty"`
	SlotID        int64     `json:"slot_id"`
	StudentID     int64     `json:"student_id,omitempty"`
	TeacherID     int64     `json:"teacher_id"`
	ActorID       int64     `json:"actor_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// New stamps an event with a fresh ID and the given time
func New(t Type, at time.Time) Event {
	return Event{ID: uuid.New(), Type: t, OccurredAt: at}
}

type Handler func(ctx context.Context, e Event) error

// Publisher is what services depend on
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
