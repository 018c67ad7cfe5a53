package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
)

type AppointmentRepository struct {
	db access
}

func (r *AppointmentRepository) Create(_ context.Context, appt *model.Appointment) error {
	var err error
	r.db.write(func(t *tables) {
		if appt.Status.IsActive() {
			for _, a := range t.appointments {
				if a.SlotID == appt.SlotID && a.Status.IsActive() {
					err = fmt.Errorf("create appointment: %w: appointments_active_slot", repository.ErrDuplicate)
					return
				}
			}
		}
		t.appointmentSeq++
		now := time.Now()
		appt.ID = t.appointmentSeq
		appt.CreatedAt = now
		appt.UpdatedAt = now
		stored := *appt
		t.appointments[appt.ID] = &stored
	})
	return err
}

func (r *AppointmentRepository) GetByID(_ context.Context, id int64) (*model.Appointment, error) {
	var appt *model.Appointment
	r.db.read(func(t *tables) {
		if a, ok := t.appointments[id]; ok {
			c := *a
			appt = &c
		}
	})
	return appt, nil
}

// GetForUpdate is GetByID: transactions already hold the store's write lock.
func (r *AppointmentRepository) GetForUpdate(ctx context.Context, id int64) (*model.Appointment, error) {
	return r.GetByID(ctx, id)
}

func (r *AppointmentRepository) SetStatus(_ context.Context, id int64, from, to model.AppointmentStatus, at time.Time) (bool, error) {
	var ok bool
	r.db.write(func(t *tables) {
		a, found := t.appointments[id]
		if !found || a.Status != from {
			return
		}
		a.Status = to
		a.UpdatedAt = at
		ok = true
	})
	return ok, nil
}

func (r *AppointmentRepository) List(_ context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	return r.collect(func(a *model.Appointment) bool {
		if filter.StudentID != 0 && a.StudentID != filter.StudentID {
			return false
		}
		if filter.TeacherID != 0 && a.TeacherID != filter.TeacherID {
			return false
		}
		if filter.SlotID != 0 && a.SlotID != filter.SlotID {
			return false
		}
		if filter.Status != "" && a.Status != filter.Status {
			return false
		}
		return true
	}, true), nil
}

func (r *AppointmentRepository) ListActive(_ context.Context) ([]*model.Appointment, error) {
	return r.collect(func(a *model.Appointment) bool { return a.Status.IsActive() }, false), nil
}

func (r *AppointmentRepository) collect(match func(a *model.Appointment) bool, newestFirst bool) []*model.Appointment {
	var appts []*model.Appointment
	r.db.read(func(t *tables) {
		for _, a := range t.appointments {
			if match(a) {
				c := *a
				appts = append(appts, &c)
			}
		}
	})

	sort.Slice(appts, func(i, j int) bool {
		a, b := appts[i], appts[j]
		if !newestFirst {
			return a.ID < b.ID
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return appts
}
