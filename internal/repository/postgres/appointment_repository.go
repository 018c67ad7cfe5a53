package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
)

type AppointmentRepository struct {
	db DBTX
}

func NewAppointmentRepository(db DBTX) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

const appointmentColumns = `id, student_id, teacher_id, slot_id, purpose, status, created_at, updated_at`

func scanAppointment(row scanner) (*model.Appointment, error) {
	var appt model.Appointment
	err := row.Scan(
		&appt.ID,
		&appt.StudentID,
		&appt.TeacherID,
		&appt.SlotID,
		&appt.Purpose,
		&appt.Status,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// Create создаёт новую запись на консультацию
func (r *AppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	query := `
		INSERT INTO appointments (student_id, teacher_id, slot_id, purpose, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		appt.StudentID,
		appt.TeacherID,
		appt.SlotID,
		appt.Purpose,
		appt.Status,
	).Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt)

	return wrapErr("create appointment", err)
}

// GetByID получает запись по ID
func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*model.Appointment, error) {
	return r.get(ctx, "get appointment by id", `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
}

// GetForUpdate получает запись и блокирует строку до конца транзакции
func (r *AppointmentRepository) GetForUpdate(ctx context.Context, id int64) (*model.Appointment, error) {
	return r.get(ctx, "lock appointment", `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id)
}

func (r *AppointmentRepository) get(ctx context.Context, op, query string, id int64) (*model.Appointment, error) {
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, wrapErr(op, err)
	}
	return appt, nil
}

// SetStatus обновляет статус записи, если он не изменился с момента чтения
func (r *AppointmentRepository) SetStatus(ctx context.Context, id int64, from, to model.AppointmentStatus, at time.Time) (bool, error) {
	query := `
		UPDATE appointments
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`

	tag, err := r.db.Exec(ctx, query, id, from, to, at)
	if err != nil {
		return false, wrapErr("set appointment status", err)
	}

	return tag.RowsAffected() == 1, nil
}

// List получает записи по фильтру, новые первыми
func (r *AppointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	var (
		where []string
		args  []any
	)

	if filter.StudentID != 0 {
		args = append(args, filter.StudentID)
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.TeacherID != 0 {
		args = append(args, filter.TeacherID)
		where = append(where, fmt.Sprintf("teacher_id = $%d", len(args)))
	}
	if filter.SlotID != 0 {
		args = append(args, filter.SlotID)
		where = append(where, fmt.Sprintf("slot_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	return r.list(ctx, "list appointments", query, args...)
}

// ListActive получает все pending и approved записи
func (r *AppointmentRepository) ListActive(ctx context.Context) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status IN ('pending', 'approved')
		ORDER BY id
	`

	return r.list(ctx, "list active appointments", query)
}

func (r *AppointmentRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Appointment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	var appts []*model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, wrapErr("scan appointment", err)
		}
		appts = append(appts, appt)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}

	return appts, nil
}
