// Package repository declares the persistence collaborator of the scheduling engine.
// Implementations live in postgres (pgx) and memory (tests, local runs).
//
// Lookups return (nil, nil) when the record does not exist.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
)

var (
	// ErrDuplicate is returned when a unique constraint rejects a write
	ErrDuplicate = errors.New("duplicate record")

	// ErrUnavailable marks transient storage failures that are safe to retry
	ErrUnavailable = errors.New("storage unavailable")
)

type SlotRepository interface {
	Create(ctx context.Context, slot *model.TimeSlot) error
	GetByID(ctx context.Context, id int64) (*model.TimeSlot, error)
	// GetForShare is GetByID that blocks concurrent status changes of the slot
	// until the transaction ends
	GetForShare(ctx context.Context, id int64) (*model.TimeSlot, error)
	// ListOpen returns open, non-withdrawn slots with date >= from ordered by (date, start minute, label)
	ListOpen(ctx context.Context, teacherID int64, from time.Time) ([]*model.TimeSlot, error)
	// ListReserved returns every held or booked slot
	ListReserved(ctx context.Context) ([]*model.TimeSlot, error)
	Stats(ctx context.Context, teacherID int64) (model.SlotStats, error)
	// SetStatus moves a non-withdrawn slot from one status to another.
	// It reports false when the slot is not in the expected status.
	SetStatus(ctx context.Context, id int64, from, to model.SlotStatus) (bool, error)
	// Withdraw soft-deletes an open slot. It reports false when the slot is not open.
	Withdraw(ctx context.Context, id int64, at time.Time) (bool, error)
	Exists(ctx context.Context, teacherID int64, date time.Time, label string) (bool, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, appt *model.Appointment) error
	GetByID(ctx context.Context, id int64) (*model.Appointment, error)
	// GetForUpdate is GetByID that locks the row for the rest of the transaction
	GetForUpdate(ctx context.Context, id int64) (*model.Appointment, error)
	// SetStatus moves an appointment from one status to another, reporting false on mismatch
	SetStatus(ctx context.Context, id int64, from, to model.AppointmentStatus, at time.Time) (bool, error)
	// List returns appointments matching the filter, newest first
	List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error)
	// ListActive returns every pending or approved appointment
	ListActive(ctx context.Context) ([]*model.Appointment, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error)
	// Approve sets approved=true on an unapproved student, reporting false otherwise
	Approve(ctx context.Context, id int64) (bool, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	GetByID(ctx context.Context, id int64) (*model.Message, error)
	// ListForRecipient returns messages addressed to the user, newest first
	ListForRecipient(ctx context.Context, userID int64) ([]*model.Message, error)
	MarkRead(ctx context.Context, id int64) error
}

type RecurringScheduleRepository interface {
	Create(ctx context.Context, schedule *model.RecurringSchedule) error
	GetByGroupID(ctx context.Context, groupID uuid.UUID) ([]*model.RecurringSchedule, error)
	GetAllActive(ctx context.Context) ([]*model.RecurringSchedule, error)
	DeactivateGroup(ctx context.Context, groupID uuid.UUID) error
}

// Tx is the set of repositories bound to one transaction
type Tx interface {
	Slots() SlotRepository
	Appointments() AppointmentRepository
	Users() UserRepository
	Messages() MessageRepository
	Recurring() RecurringScheduleRepository
}

// Store exposes the relaxed read/write path through Tx and runs
// transactional read-modify-write sections through InTx.
type Store interface {
	Tx
	// InTx runs fn in a transaction. The transaction commits when fn returns nil
	// and rolls back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
