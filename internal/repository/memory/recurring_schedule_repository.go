package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
)

type RecurringScheduleRepository struct {
	db access
}

func (r *RecurringScheduleRepository) Create(_ context.Context, schedule *model.RecurringSchedule) error {
	r.db.write(func(t *tables) {
		t.recurringSeq++
		now := time.Now()
		schedule.ID = t.recurringSeq
		schedule.CreatedAt = now
		schedule.UpdatedAt = now
		stored := *schedule
		t.recurring[schedule.ID] = &stored
	})
	return nil
}

func (r *RecurringScheduleRepository) GetByGroupID(_ context.Context, groupID uuid.UUID) ([]*model.RecurringSchedule, error) {
	return r.collect(func(s *model.RecurringSchedule) bool { return s.GroupID == groupID }), nil
}

func (r *RecurringScheduleRepository) GetAllActive(_ context.Context) ([]*model.RecurringSchedule, error) {
	return r.collect(func(s *model.RecurringSchedule) bool { return s.IsActive }), nil
}

func (r *RecurringScheduleRepository) DeactivateGroup(_ context.Context, groupID uuid.UUID) error {
	r.db.write(func(t *tables) {
		now := time.Now()
		for _, s := range t.recurring {
			if s.GroupID == groupID {
				s.IsActive = false
				s.UpdatedAt = now
			}
		}
	})
	return nil
}

func (r *RecurringScheduleRepository) collect(match func(s *model.RecurringSchedule) bool) []*model.RecurringSchedule {
	var out []*model.RecurringSchedule
	r.db.read(func(t *tables) {
		for _, s := range t.recurring {
			if match(s) {
				c := *s
				out = append(out, &c)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
