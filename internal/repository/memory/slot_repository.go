package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
)

type SlotRepository struct {
	db access
}

func activeSlotExists(t *tables, teacherID int64, date time.Time, label string) bool {
	for _, s := range t.slots {
		if s.TeacherID == teacherID && s.Date.Equal(date) && s.Label == label && !s.IsWithdrawn() {
			return true
		}
	}
	return false
}

func (r *SlotRepository) Create(_ context.Context, slot *model.TimeSlot) error {
	var err error
	r.db.write(func(t *tables) {
		if activeSlotExists(t, slot.TeacherID, slot.Date, slot.Label) {
			err = fmt.Errorf("create slot: %w: time_slots_unique_active", repository.ErrDuplicate)
			return
		}
		t.slotSeq++
		slot.ID = t.slotSeq
		slot.CreatedAt = time.Now()
		t.slots[slot.ID] = copySlot(slot)
	})
	return err
}

func (r *SlotRepository) GetByID(_ context.Context, id int64) (*model.TimeSlot, error) {
	var slot *model.TimeSlot
	r.db.read(func(t *tables) {
		if s, ok := t.slots[id]; ok {
			slot = copySlot(s)
		}
	})
	return slot, nil
}

// GetForShare is GetByID; transactions already hold the store's write lock
func (r *SlotRepository) GetForShare(ctx context.Context, id int64) (*model.TimeSlot, error) {
	return r.GetByID(ctx, id)
}

func (r *SlotRepository) ListOpen(_ context.Context, teacherID int64, from time.Time) ([]*model.TimeSlot, error) {
	var slots []*model.TimeSlot
	r.db.read(func(t *tables) {
		for _, s := range t.slots {
			if s.TeacherID == teacherID && s.Status == model.SlotStatusOpen && !s.IsWithdrawn() && !s.Date.Before(from) {
				slots = append(slots, copySlot(s))
			}
		}
	})

	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.StartMinute != b.StartMinute {
			return a.StartMinute < b.StartMinute
		}
		return a.Label < b.Label
	})
	return slots, nil
}

func (r *SlotRepository) ListReserved(_ context.Context) ([]*model.TimeSlot, error) {
	var slots []*model.TimeSlot
	r.db.read(func(t *tables) {
		for _, s := range t.slots {
			if s.IsReserved() {
				slots = append(slots, copySlot(s))
			}
		}
	})
	sort.Slice(slots, func(i, j int) bool { return slots[i].ID < slots[j].ID })
	return slots, nil
}

func (r *SlotRepository) Stats(_ context.Context, teacherID int64) (model.SlotStats, error) {
	var stats model.SlotStats
	r.db.read(func(t *tables) {
		for _, s := range t.slots {
			if s.TeacherID != teacherID || s.IsWithdrawn() {
				continue
			}
			stats.Published++
			switch s.Status {
			case model.SlotStatusOpen:
				stats.Open++
			case model.SlotStatusHeld:
				stats.Held++
			case model.SlotStatusBooked:
				stats.Booked++
			}
		}
	})
	return stats, nil
}

func (r *SlotRepository) SetStatus(_ context.Context, id int64, from, to model.SlotStatus) (bool, error) {
	var ok bool
	r.db.write(func(t *tables) {
		s, found := t.slots[id]
		if !found || s.IsWithdrawn() || s.Status != from {
			return
		}
		s.Status = to
		ok = true
	})
	return ok, nil
}

func (r *SlotRepository) Withdraw(_ context.Context, id int64, at time.Time) (bool, error) {
	var ok bool
	r.db.write(func(t *tables) {
		s, found := t.slots[id]
		if !found || s.IsWithdrawn() || s.Status != model.SlotStatusOpen {
			return
		}
		s.WithdrawnAt = &at
		ok = true
	})
	return ok, nil
}

func (r *SlotRepository) Exists(_ context.Context, teacherID int64, date time.Time, label string) (bool, error) {
	var exists bool
	r.db.read(func(t *tables) {
		exists = activeSlotExists(t, teacherID, date, label)
	})
	return exists, nil
}
