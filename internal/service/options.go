package service

import (
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
)

// Option configures the time source shared by the services
type Option func(*clock)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *clock) { c.now = now }
}

// WithLocation sets the zone "today" is computed in. Nil keeps UTC.
func WithLocation(loc *time.Location) Option {
	return func(c *clock) {
		if loc != nil {
			c.loc = loc
		}
	}
}

type clock struct {
	now func() time.Time
	loc *time.Location
}

func newClock(opts []Option) clock {
	c := clock{now: time.Now, loc: time.UTC}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// today is the current calendar date in the configured zone, as UTC midnight
func (c clock) today() time.Time {
	return model.DateOf(c.now(), c.loc)
}

// minuteOfDay is the current wall-clock minute in the configured zone
func (c clock) minuteOfDay() int {
	t := c.now().In(c.loc)
	return t.Hour()*60 + t.Minute()
}
