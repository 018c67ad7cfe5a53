package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

type SlotStatus string

const (
	SlotStatusOpen   SlotStatus = "open"   // bookable
	SlotStatusHeld   SlotStatus = "held"   // reserved by a pending appointment
	SlotStatusBooked SlotStatus = "booked" // consumed by an approved appointment
)

type TimeSlot struct {
	ID          int64      `json:"id"`
	TeacherID   int64      `json:"teacher_id"`
	Date        time.Time  `json:"date"`  // calendar date, midnight UTC
	Label       string     `json:"label"` // "9:00-10:00"
	StartMinute int        `json:"start_minute"`
	Status      SlotStatus `json:"status"`
	RecurringID *int64     `json:"recurring_id"` // set when generated from a weekly schedule
	CreatedAt   time.Time  `json:"created_at"`
	WithdrawnAt *time.Time `json:"withdrawn_at"`
}

// IsWithdrawn reports whether the teacher has removed the slot
func (s *TimeSlot) IsWithdrawn() bool {
	return s.WithdrawnAt != nil
}

// IsReserved reports whether an active appointment should reference the slot
func (s *TimeSlot) IsReserved() bool {
	return s.Status == SlotStatusHeld || s.Status == SlotStatusBooked
}

// SlotStats counts a teacher's published (non-withdrawn) slots by status
type SlotStats struct {
	Published int `json:"published"`
	Open      int `json:"open"`
	Held      int `json:"held"`
	Booked    int `json:"booked"`
}

// Reserved is the number of held and booked slots
func (s SlotStats) Reserved() int {
	return s.Held + s.Booked
}

// BookingRate returns reserved / published, 0 when nothing is published
func (s SlotStats) BookingRate() float64 {
	if s.Published == 0 {
		return 0
	}
	return float64(s.Reserved()) / float64(s.Published)
}

var labelPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})-(\d{1,2}):(\d{2})$`)

var ErrMalformedLabel = errors.New("label must look like H:MM-H:MM with end after start")

// ParseLabel validates a time range label and returns its bounds in minutes since midnight
func ParseLabel(label string) (start, end int, err error) {
	m := labelPattern.FindStringSubmatch(label)
	if m == nil {
		return 0, 0, ErrMalformedLabel
	}

	start, err = clockMinutes(m[1], m[2])
	if err != nil {
		return 0, 0, err
	}
	end, err = clockMinutes(m[3], m[4])
	if err != nil {
		return 0, 0, err
	}

	if end <= start {
		return 0, 0, ErrMalformedLabel
	}

	return start, end, nil
}

// NormalizeLabel parses label and returns its canonical H:MM-H:MM form with the start minute.
// Equivalent spellings such as "09:00-10:00" and "9:00-10:00" normalize to the same string.
func NormalizeLabel(label string) (string, int, error) {
	start, end, err := ParseLabel(label)
	if err != nil {
		return "", 0, err
	}
	return FormatLabel(start, end), start, nil
}

// FormatLabel renders minute bounds as a canonical label
func FormatLabel(start, end int) string {
	return fmt.Sprintf("%d:%02d-%d:%02d", start/60, start%60, end/60, end%60)
}

func clockMinutes(h, m string) (int, error) {
	hour, _ := strconv.Atoi(h)
	minute, _ := strconv.Atoi(m)
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("%w: %s:%s is not a clock time", ErrMalformedLabel, h, m)
	}
	return hour*60 + minute, nil
}

// DateOf truncates t to its calendar date in loc and returns it as midnight UTC.
// A nil loc keeps t's own location.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
