package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/apperr"
	"github.com/Freeeeeet/consultation_scheduler/internal/events"
	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
)

const MaxPurposeLength = 500

// BookingService coordinates every write that touches an appointment and its
// slot. Each operation runs in one storage transaction and publishes its event
// after commit.
type BookingService struct {
	store     repository.Store
	publisher events.Publisher
	logger    *zap.Logger
	clock     clock
}

func NewBookingService(store repository.Store, publisher events.Publisher, logger *zap.Logger, opts ...Option) *BookingService {
	return &BookingService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		clock:     newClock(opts),
	}
}

// RequestBooking reserves an open slot for an approved student and creates a
// pending appointment. Of concurrent requests for one slot exactly one wins;
// the others get Conflict with ReasonSlotUnavailable.
func (s *BookingService) RequestBooking(ctx context.Context, caller model.Caller, slotID int64, purpose string) (*model.Appointment, error) {
	const op = "booking.RequestBooking"

	if !caller.CanBook() {
		s.logger.Warn("Forbidden booking request",
			zap.Int64("caller_id", caller.ID),
			zap.String("role", string(caller.Role)),
			zap.Bool("approved", caller.Approved),
		)
		return nil, apperr.Forbidden(op, "only approved students can book")
	}

	// слот проверяется раньше цели: NotFound и Conflict важнее ошибки ввода
	purpose = strings.TrimSpace(purpose)
	n := utf8.RuneCountInString(purpose)
	validPurpose := n > 0 && n <= MaxPurposeLength

	var appt *model.Appointment
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		slot, err := tx.Slots().GetByID(ctx, slotID)
		if err != nil {
			return err
		}
		if slot == nil || slot.IsWithdrawn() {
			return apperr.NotFound(op, "slot not found")
		}
		if slot.Status != model.SlotStatusOpen {
			return apperr.Conflict(op, apperr.ReasonSlotUnavailable, "slot is no longer available")
		}

		if !validPurpose {
			return apperr.InvalidInput(op, fmt.Sprintf("purpose must be 1..%d characters", MaxPurposeLength))
		}

		held, err := holdSlot(ctx, tx, slotID)
		if err != nil {
			return err
		}
		if !held {
			return apperr.Conflict(op, apperr.ReasonSlotUnavailable, "slot is no longer available")
		}

		appt = &model.Appointment{
			StudentID: caller.ID,
			TeacherID: slot.TeacherID,
			SlotID:    slotID,
			Purpose:   purpose,
			Status:    model.AppointmentStatusPending,
		}
		if err := tx.Appointments().Create(ctx, appt); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.Conflict(op, apperr.ReasonSlotUnavailable, "slot is no longer available")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, storageErr(op, err)
	}

	s.logger.Info("Appointment requested",
		zap.Int64("appointment_id", appt.ID),
		zap.Int64("student_id", appt.StudentID),
		zap.Int64("teacher_id", appt.TeacherID),
		zap.Int64("slot_id", appt.SlotID),
	)

	publish(ctx, s.publisher, s.logger, appointmentEvent(events.AppointmentRequested, appt, caller.ID, s.clock.now()))

	return appt, nil
}

// Decide approves or rejects a pending appointment on behalf of its teacher
func (s *BookingService) Decide(ctx context.Context, caller model.Caller, appointmentID int64, decision model.Decision) (*model.Appointment, error) {
	const op = "booking.Decide"

	to, ok := decision.Target()
	if !ok {
		return nil, apperr.InvalidInput(op, "decision must be approve or reject")
	}

	return s.move(ctx, op, caller, appointmentID, to)
}

// Cancel withdraws an appointment. Students cancel pending or approved ones,
// teachers only approved ones.
func (s *BookingService) Cancel(ctx context.Context, caller model.Caller, appointmentID int64) (*model.Appointment, error) {
	return s.move(ctx, "booking.Cancel", caller, appointmentID, model.AppointmentStatusCancelled)
}

func (s *BookingService) move(ctx context.Context, op string, caller model.Caller, appointmentID int64, to model.AppointmentStatus) (*model.Appointment, error) {
	var (
		appt *model.Appointment
		from model.AppointmentStatus
	)

	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		appt, err = tx.Appointments().GetForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		if appt == nil {
			return apperr.NotFound(op, "appointment not found")
		}

		allowed, edgeExists := authorize(caller, appt, to)
		if !allowed {
			s.logger.Warn("Forbidden appointment transition",
				zap.String("op", op),
				zap.Int64("caller_id", caller.ID),
				zap.String("role", string(caller.Role)),
				zap.Int64("appointment_id", appt.ID),
				zap.String("status", string(appt.Status)),
				zap.String("target", string(to)),
			)
			return apperr.Forbidden(op, fmt.Sprintf("caller may not move the appointment to %s", to))
		}
		if !edgeExists {
			return apperr.Conflict(op, apperr.ReasonAppointmentResolved, fmt.Sprintf("appointment is %s", appt.Status))
		}

		from = appt.Status
		return transition(ctx, op, tx, appt, to, s.clock.now())
	})
	if err != nil {
		if apperr.ReasonOf(err) == apperr.ReasonInvariantViolation {
			s.logger.Error("Invariant violation", zap.String("op", op), zap.Int64("appointment_id", appointmentID), zap.Error(err))
		}
		return nil, storageErr(op, err)
	}

	s.logger.Info("Appointment status changed",
		zap.Int64("appointment_id", appt.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.Int64("actor_id", caller.ID),
	)

	publish(ctx, s.publisher, s.logger, appointmentEvent(eventFor(to), appt, caller.ID, s.clock.now()))

	return appt, nil
}

// Inconsistency is one detected breach of the slot/appointment pairing
type Inconsistency struct {
	SlotID         int64
	AppointmentIDs []int64
	Problem        string
}

// Audit checks that every held or booked slot has exactly one active
// appointment in the matching state and that no active appointment sits on an
// open slot. Candidates are re-checked one slot at a time inside a
// transaction, so changes committed during the scan are not reported.
func (s *BookingService) Audit(ctx context.Context) ([]Inconsistency, error) {
	const op = "booking.Audit"

	reserved, err := s.store.Slots().ListReserved(ctx)
	if err != nil {
		return nil, storageErr(op, err)
	}
	active, err := s.store.Appointments().ListActive(ctx)
	if err != nil {
		return nil, storageErr(op, err)
	}

	candidates := make(map[int64]struct{}, len(reserved)+len(active))
	for _, slot := range reserved {
		candidates[slot.ID] = struct{}{}
	}
	for _, appt := range active {
		candidates[appt.SlotID] = struct{}{}
	}

	ids := make([]int64, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var found []Inconsistency
	for _, slotID := range ids {
		var problem *Inconsistency
		err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			var err error
			problem, err = checkSlot(ctx, tx, slotID)
			return err
		})
		if err != nil {
			return found, storageErr(op, err)
		}
		if problem != nil {
			found = append(found, *problem)
		}
	}

	return found, nil
}

func checkSlot(ctx context.Context, tx repository.Tx, slotID int64) (*Inconsistency, error) {
	// the share lock keeps writers from moving the slot between the two reads
	slot, err := tx.Slots().GetForShare(ctx, slotID)
	if err != nil {
		return nil, err
	}

	appts, err := tx.Appointments().List(ctx, model.AppointmentFilter{SlotID: slotID})
	if err != nil {
		return nil, err
	}

	var activeIDs []int64
	var current *model.Appointment
	for _, a := range appts {
		if a.Status.IsActive() {
			activeIDs = append(activeIDs, a.ID)
			current = a
		}
	}

	report := func(format string, args ...any) *Inconsistency {
		return &Inconsistency{SlotID: slotID, AppointmentIDs: activeIDs, Problem: fmt.Sprintf(format, args...)}
	}

	switch {
	case slot == nil:
		if len(activeIDs) > 0 {
			return report("slot is missing but has %d active appointments", len(activeIDs)), nil
		}
		return nil, nil
	case len(activeIDs) > 1:
		return report("slot is %s with %d active appointments", slot.Status, len(activeIDs)), nil
	case len(activeIDs) == 0 && slot.IsReserved():
		return report("slot is %s without an active appointment", slot.Status), nil
	case len(activeIDs) == 1 && slot.Status != current.Status.SlotStatusFor():
		return report("slot is %s but appointment %d is %s", slot.Status, current.ID, current.Status), nil
	}

	return nil, nil
}
