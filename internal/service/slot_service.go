package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/apperr"
	"github.com/Freeeeeet/consultation_scheduler/internal/events"
	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
)

const (
	DefaultWeeksAhead = 4
	MaxWeeksAhead     = 52
)

// SlotService is the slot registry: teachers publish and withdraw slots,
// everyone lists open ones.
type SlotService struct {
	store     repository.Store
	publisher events.Publisher
	logger    *zap.Logger
	clock     clock
}

func NewSlotService(store repository.Store, publisher events.Publisher, logger *zap.Logger, opts ...Option) *SlotService {
	return &SlotService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		clock:     newClock(opts),
	}
}

// PublishSlot создаёт свободный слот учителя
func (s *SlotService) PublishSlot(ctx context.Context, caller model.Caller, date time.Time, label string) (*model.TimeSlot, error) {
	const op = "slots.PublishSlot"

	if !caller.IsTeacher() {
		s.logger.Warn("Forbidden slot publish", zap.Int64("caller_id", caller.ID), zap.String("role", string(caller.Role)))
		return nil, apperr.Forbidden(op, "only teachers can publish slots")
	}

	label, start, err := model.NormalizeLabel(strings.TrimSpace(label))
	if err != nil {
		return nil, apperr.InvalidInput(op, err.Error())
	}

	day := model.DateOf(date, nil)
	if day.Before(s.clock.today()) {
		return nil, apperr.InvalidInput(op, "date is in the past")
	}

	exists, err := s.store.Slots().Exists(ctx, caller.ID, day, label)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if exists {
		return nil, apperr.Duplicate(op, "an identical slot is already published")
	}

	slot := &model.TimeSlot{
		TeacherID:   caller.ID,
		Date:        day,
		Label:       label,
		StartMinute: start,
		Status:      model.SlotStatusOpen,
	}

	// Уникальный индекс ловит одновременную публикацию того же слота
	if err := s.store.Slots().Create(ctx, slot); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Duplicate(op, "an identical slot is already published")
		}
		return nil, storageErr(op, err)
	}

	s.logger.Info("Slot published",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("teacher_id", slot.TeacherID),
		zap.String("date", slot.Date.Format(time.DateOnly)),
		zap.String("label", slot.Label),
	)

	publish(ctx, s.publisher, s.logger, slotEvent(events.SlotPublished, slot, caller.ID, s.clock.now()))

	return slot, nil
}

// ListOpenSlots возвращает свободные слоты учителя начиная с from.
// Нулевой from означает сегодня.
func (s *SlotService) ListOpenSlots(ctx context.Context, teacherID int64, from time.Time) ([]*model.TimeSlot, error) {
	const op = "slots.ListOpenSlots"

	day := s.clock.today()
	if !from.IsZero() {
		day = model.DateOf(from, nil)
	}

	slots, err := s.store.Slots().ListOpen(ctx, teacherID, day)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if slots == nil {
		slots = []*model.TimeSlot{}
	}

	return slots, nil
}

// WithdrawSlot снимает свободный слот с публикации
func (s *SlotService) WithdrawSlot(ctx context.Context, caller model.Caller, slotID int64) error {
	const op = "slots.WithdrawSlot"

	slot, err := s.store.Slots().GetByID(ctx, slotID)
	if err != nil {
		return storageErr(op, err)
	}
	if slot == nil || slot.IsWithdrawn() {
		return apperr.NotFound(op, "slot not found")
	}

	if !caller.IsTeacher() || caller.ID != slot.TeacherID {
		s.logger.Warn("Forbidden slot withdraw", zap.Int64("caller_id", caller.ID), zap.Int64("slot_id", slotID))
		return apperr.Forbidden(op, "only the owning teacher can withdraw the slot")
	}

	if slot.Status != model.SlotStatusOpen {
		return apperr.Conflict(op, apperr.ReasonSlotNotOpen, "slot is "+string(slot.Status))
	}

	ok, err := s.store.Slots().Withdraw(ctx, slotID, s.clock.now())
	if err != nil {
		return storageErr(op, err)
	}
	if !ok {
		// Слот забронировали между чтением и записью
		return apperr.Conflict(op, apperr.ReasonSlotNotOpen, "slot is no longer open")
	}

	s.logger.Info("Slot withdrawn", zap.Int64("slot_id", slotID), zap.Int64("teacher_id", slot.TeacherID))

	publish(ctx, s.publisher, s.logger, slotEvent(events.SlotWithdrawn, slot, caller.ID, s.clock.now()))

	return nil
}

// holdSlot, bookSlot and releaseSlot are the coordinator's slot writes.
// They run inside its transaction and report false when the slot is not in
// the expected status.

func holdSlot(ctx context.Context, tx repository.Tx, slotID int64) (bool, error) {
	return tx.Slots().SetStatus(ctx, slotID, model.SlotStatusOpen, model.SlotStatusHeld)
}

func bookSlot(ctx context.Context, tx repository.Tx, slotID int64) (bool, error) {
	return tx.Slots().SetStatus(ctx, slotID, model.SlotStatusHeld, model.SlotStatusBooked)
}

func releaseSlot(ctx context.Context, tx repository.Tx, slotID int64, from model.SlotStatus) (bool, error) {
	return tx.Slots().SetStatus(ctx, slotID, from, model.SlotStatusOpen)
}

// ============ Recurring расписания ============

// PublishWeekly создаёт группу еженедельных расписаний и сразу публикует
// слоты на weeksAhead недель вперёд. Возвращает group_id и число созданных слотов.
func (s *SlotService) PublishWeekly(ctx context.Context, caller model.Caller, weekdays []int, label string, weeksAhead int) (uuid.UUID, int, error) {
	const op = "slots.PublishWeekly"

	if !caller.IsTeacher() {
		s.logger.Warn("Forbidden weekly publish", zap.Int64("caller_id", caller.ID))
		return uuid.Nil, 0, apperr.Forbidden(op, "only teachers can publish slots")
	}

	label, _, err := model.NormalizeLabel(strings.TrimSpace(label))
	if err != nil {
		return uuid.Nil, 0, apperr.InvalidInput(op, err.Error())
	}

	days, err := normalizeWeekdays(weekdays)
	if err != nil {
		return uuid.Nil, 0, apperr.InvalidInput(op, err.Error())
	}

	if weeksAhead <= 0 {
		weeksAhead = DefaultWeeksAhead
	}
	if weeksAhead > MaxWeeksAhead {
		return uuid.Nil, 0, apperr.InvalidInput(op, "weeks ahead must not exceed 52")
	}

	// Генерируем общий group_id для всей группы
	groupID := uuid.New()

	var schedules []*model.RecurringSchedule
	err = s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		for _, weekday := range days {
			schedule := &model.RecurringSchedule{
				GroupID:   groupID,
				TeacherID: caller.ID,
				Weekday:   weekday,
				Label:     label,
				IsActive:  true,
			}
			if err := tx.Recurring().Create(ctx, schedule); err != nil {
				return err
			}
			schedules = append(schedules, schedule)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, 0, storageErr(op, err)
	}

	created := 0
	for _, schedule := range schedules {
		count, err := s.generateForSchedule(ctx, schedule, weeksAhead)
		if err != nil {
			s.logger.Error("Failed to generate initial slots",
				zap.Error(err),
				zap.Int64("recurring_schedule_id", schedule.ID),
			)
			continue
		}
		created += count
	}

	s.logger.Info("Recurring schedule group created",
		zap.String("group_id", groupID.String()),
		zap.Int64("teacher_id", caller.ID),
		zap.Ints("weekdays", days),
		zap.String("label", label),
		zap.Int("slots_created", created),
	)

	return groupID, created, nil
}

// StopWeekly деактивирует группу. Уже опубликованные слоты остаются.
func (s *SlotService) StopWeekly(ctx context.Context, caller model.Caller, groupID uuid.UUID) error {
	const op = "slots.StopWeekly"

	schedules, err := s.store.Recurring().GetByGroupID(ctx, groupID)
	if err != nil {
		return storageErr(op, err)
	}
	if len(schedules) == 0 {
		return apperr.NotFound(op, "recurring group not found")
	}

	if !caller.IsTeacher() || schedules[0].TeacherID != caller.ID {
		s.logger.Warn("Forbidden weekly stop", zap.Int64("caller_id", caller.ID), zap.String("group_id", groupID.String()))
		return apperr.Forbidden(op, "only the owning teacher can stop the schedule")
	}

	if err := s.store.Recurring().DeactivateGroup(ctx, groupID); err != nil {
		return storageErr(op, err)
	}

	s.logger.Info("Recurring schedule group deactivated",
		zap.String("group_id", groupID.String()),
		zap.Int64("teacher_id", caller.ID),
	)

	return nil
}

// GenerateRecurringSlots генерирует слоты для всех активных recurring schedules.
// Вызывается фоновым планировщиком.
func (s *SlotService) GenerateRecurringSlots(ctx context.Context, weeksAhead int) (int, error) {
	const op = "slots.GenerateRecurringSlots"

	if weeksAhead <= 0 {
		weeksAhead = DefaultWeeksAhead
	}

	schedules, err := s.store.Recurring().GetAllActive(ctx)
	if err != nil {
		return 0, storageErr(op, err)
	}

	total := 0
	for _, schedule := range schedules {
		count, err := s.generateForSchedule(ctx, schedule, weeksAhead)
		if err != nil {
			s.logger.Error("Failed to generate slots for recurring schedule",
				zap.Error(err),
				zap.Int64("recurring_schedule_id", schedule.ID),
			)
			continue
		}
		total += count
	}

	s.logger.Info("Generated slots for all recurring schedules",
		zap.Int("total_schedules", len(schedules)),
		zap.Int("total_slots_created", total),
	)

	return total, nil
}

// generateForSchedule публикует недостающие слоты одного расписания.
// Сегодняшний слот пропускается, если его время уже началось.
func (s *SlotService) generateForSchedule(ctx context.Context, schedule *model.RecurringSchedule, weeksAhead int) (int, error) {
	label, start, err := model.NormalizeLabel(schedule.Label)
	if err != nil {
		return 0, err
	}

	today := s.clock.today()
	count := 0

	for _, date := range schedule.NextDates(today, weeksAhead) {
		if ctx.Err() != nil {
			return count, ctx.Err()
		}

		if date.Equal(today) && start <= s.clock.minuteOfDay() {
			continue
		}

		exists, err := s.store.Slots().Exists(ctx, schedule.TeacherID, date, label)
		if err != nil {
			return count, err
		}
		if exists {
			continue
		}

		recurringID := schedule.ID
		slot := &model.TimeSlot{
			TeacherID:   schedule.TeacherID,
			Date:        date,
			Label:       label,
			StartMinute: start,
			Status:      model.SlotStatusOpen,
			RecurringID: &recurringID,
		}

		if err := s.store.Slots().Create(ctx, slot); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				continue
			}
			return count, err
		}

		publish(ctx, s.publisher, s.logger, slotEvent(events.SlotPublished, slot, schedule.TeacherID, s.clock.now()))
		count++
	}

	return count, nil
}

func normalizeWeekdays(weekdays []int) ([]int, error) {
	if len(weekdays) == 0 {
		return nil, errors.New("at least one weekday is required")
	}

	seen := make(map[int]bool, len(weekdays))
	days := make([]int, 0, len(weekdays))
	for _, d := range weekdays {
		if d < 0 || d > 6 {
			return nil, errors.New("weekday must be between 0 (Sunday) and 6 (Saturday)")
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}

	sort.Ints(days)
	return days, nil
}
