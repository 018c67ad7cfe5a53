// Package cache stores the read model served by the query layer.
// Values are JSON encoded; Redis backs shared deployments and Memory a single process.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCacheMiss is returned when the requested key is not cached
	ErrCacheMiss = errors.New("cache: key not found")

	ErrCacheKeyEmpty      = errors.New("cache: key cannot be empty")
	ErrCacheSerialization = errors.New("cache: serialization failed")
)

type Cache interface {
	// Get decodes the cached value into dest or returns ErrCacheMiss
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

const (
	PrefixStudentAppointments = "appointments:student:"
	PrefixTeacherAppointments = "appointments:teacher:"
	PrefixTeacherStats        = "stats:teacher:"
)

func StudentAppointmentsPrefix(studentID int64) string {
	return fmt.Sprintf("%s%d:", PrefixStudentAppointments, studentID)
}

// StudentAppointmentsKey keys one filtered listing; status may be empty
func StudentAppointmentsKey(studentID int64, status string) string {
	return StudentAppointmentsPrefix(studentID) + statusPart(status)
}

func TeacherAppointmentsPrefix(teacherID int64) string {
	return fmt.Sprintf("%s%d:", PrefixTeacherAppointments, teacherID)
}

func TeacherAppointmentsKey(teacherID int64, status string) string {
	return TeacherAppointmentsPrefix(teacherID) + statusPart(status)
}

func TeacherStatsKey(teacherID int64) string {
	return fmt.Sprintf("%s%d", PrefixTeacherStats, teacherID)
}

func statusPart(status string) string {
	if status == "" {
		return "all"
	}
	return status
}
