package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Freeeeeet/consultation_scheduler/internal/cache"
	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
)

// QueryService is the relaxed read path. Results may lag committed writes
// until the projector drops the cached entry or its TTL expires.
type QueryService struct {
	store  repository.Store
	cache  cache.Cache
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

func NewQueryService(store repository.Store, c cache.Cache, ttl time.Duration, logger *zap.Logger) *QueryService {
	return &QueryService{
		store:  store,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

// BookingRate is the share of a teacher's published slots that are held or booked
type BookingRate struct {
	TeacherID int64           `json:"teacher_id"`
	Rate      float64         `json:"rate"`
	Stats     model.SlotStats `json:"stats"`
}

// ListForStudent returns the student's appointments, newest first. An empty
// status returns all of them.
func (q *QueryService) ListForStudent(ctx context.Context, studentID int64, status model.AppointmentStatus) ([]*model.Appointment, error) {
	key := cache.StudentAppointmentsKey(studentID, string(status))
	return cached(ctx, q, "query.ListForStudent", key, func(ctx context.Context) ([]*model.Appointment, error) {
		return q.list(ctx, model.AppointmentFilter{StudentID: studentID, Status: status})
	})
}

// ListForTeacher returns the teacher's appointments, newest first
func (q *QueryService) ListForTeacher(ctx context.Context, teacherID int64, status model.AppointmentStatus) ([]*model.Appointment, error) {
	key := cache.TeacherAppointmentsKey(teacherID, string(status))
	return cached(ctx, q, "query.ListForTeacher", key, func(ctx context.Context) ([]*model.Appointment, error) {
		return q.list(ctx, model.AppointmentFilter{TeacherID: teacherID, Status: status})
	})
}

func (q *QueryService) list(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	appts, err := q.store.Appointments().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if appts == nil {
		appts = []*model.Appointment{}
	}
	return appts, nil
}

// TeacherStats counts the teacher's published slots by status
func (q *QueryService) TeacherStats(ctx context.Context, teacherID int64) (model.SlotStats, error) {
	return cached(ctx, q, "query.TeacherStats", cache.TeacherStatsKey(teacherID), func(ctx context.Context) (model.SlotStats, error) {
		return q.store.Slots().Stats(ctx, teacherID)
	})
}

// BookingRate returns reserved / published for the teacher, 0 when nothing is published
func (q *QueryService) BookingRate(ctx context.Context, teacherID int64) (BookingRate, error) {
	stats, err := q.TeacherStats(ctx, teacherID)
	if err != nil {
		return BookingRate{}, err
	}

	return BookingRate{
		TeacherID: teacherID,
		Rate:      stats.BookingRate(),
		Stats:     stats,
	}, nil
}

// cached serves key from the cache, loading it once for concurrent misses.
// Cache failures degrade to a direct load.
func cached[T any](ctx context.Context, q *QueryService, op, key string, load func(ctx context.Context) (T, error)) (T, error) {
	var value T

	err := q.cache.Get(ctx, key, &value)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		q.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
	}

	// the load is shared by every caller waiting on key, so it must not die with the first one
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := q.group.Do(key, func() (any, error) {
		loaded, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if err := q.cache.Set(loadCtx, key, loaded, q.ttl); err != nil {
			q.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		}
		return loaded, nil
	})
	if err != nil {
		var zero T
		return zero, storageErr(op, err)
	}

	return v.(T), nil
}
