package model

import (
	"time"

	"github.com/google/uuid"
)

// RecurringSchedule is a weekly availability template a teacher publishes slots from
type RecurringSchedule struct {
	ID        int64     `json:"id"`
	GroupID   uuid.UUID `json:"group_id"` // schedules created together share a group
	TeacherID int64     `json:"teacher_id"`
	Weekday   int       `json:"weekday"` // 0 = Sunday, 6 = Saturday
	Label     string    `json:"label"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NextDates returns the dates matching the schedule's weekday in [from, from+weeks*7)
func (r *RecurringSchedule) NextDates(from time.Time, weeks int) []time.Time {
	var dates []time.Time
	for i := 0; i < weeks*7; i++ {
		date := from.AddDate(0, 0, i)
		if int(date.Weekday()) == r.Weekday {
			dates = append(dates, date)
		}
	}
	return dates
}
