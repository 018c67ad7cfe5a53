package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/cache"
	"github.com/Freeeeeet/consultation_scheduler/internal/events"
)

// Projector keeps the cached read model in step with domain events by
// dropping the entries an event affects.
type Projector struct {
	cache  cache.Cache
	logger *zap.Logger
}

func NewProjector(c cache.Cache, logger *zap.Logger) *Projector {
	return &Projector{cache: c, logger: logger}
}

// Register subscribes the projector to every event on the bus
func (p *Projector) Register(bus *events.Bus) error {
	return bus.SubscribeAll(p.Handle)
}

func (p *Projector) Handle(ctx context.Context, e events.Event) error {
	if e.StudentID != 0 {
		if err := p.cache.DeleteByPrefix(ctx, cache.StudentAppointmentsPrefix(e.StudentID)); err != nil {
			return err
		}
	}

	if e.TeacherID != 0 {
		if e.AppointmentID != 0 {
			if err := p.cache.DeleteByPrefix(ctx, cache.TeacherAppointmentsPrefix(e.TeacherID)); err != nil {
				return err
			}
		}
		if err := p.cache.Delete(ctx, cache.TeacherStatsKey(e.TeacherID)); err != nil {
			return err
		}
	}

	p.logger.Debug("Read model invalidated",
		zap.String("type", string(e.Type)),
		zap.Int64("student_id", e.StudentID),
		zap.Int64("teacher_id", e.TeacherID),
	)
	return nil
}
