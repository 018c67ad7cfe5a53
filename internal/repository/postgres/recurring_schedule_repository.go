package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
)

// RecurringScheduleRepository управляет recurring расписаниями в базе данных
type RecurringScheduleRepository struct {
	db DBTX
}

// NewRecurringScheduleRepository создаёт новый репозиторий
func NewRecurringScheduleRepository(db DBTX) *RecurringScheduleRepository {
	return &RecurringScheduleRepository{db: db}
}

const recurringColumns = `id, group_id, teacher_id, weekday, label, is_active, created_at, updated_at`

func scanRecurring(row scanner) (*model.RecurringSchedule, error) {
	schedule := &model.RecurringSchedule{}
	err := row.Scan(
		&schedule.ID,
		&schedule.GroupID,
		&schedule.TeacherID,
		&schedule.Weekday,
		&schedule.Label,
		&schedule.IsActive,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return schedule, nil
}

// Create создаёт новый recurring schedule
func (r *RecurringScheduleRepository) Create(ctx context.Context, schedule *model.RecurringSchedule) error {
	query := `
		INSERT INTO recurring_schedules (group_id, teacher_id, weekday, label, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx,
		query,
		schedule.GroupID,
		schedule.TeacherID,
		schedule.Weekday,
		schedule.Label,
		schedule.IsActive,
	).Scan(&schedule.ID, &schedule.CreatedAt, &schedule.UpdatedAt)

	return wrapErr("create recurring schedule", err)
}

// GetByGroupID получает все schedules одной группы
func (r *RecurringScheduleRepository) GetByGroupID(ctx context.Context, groupID uuid.UUID) ([]*model.RecurringSchedule, error) {
	query := `
		SELECT ` + recurringColumns + `
		FROM recurring_schedules
		WHERE group_id = $1
		ORDER BY weekday, id
	`

	return r.list(ctx, "get recurring schedules by group", query, groupID)
}

// GetAllActive получает все активные recurring schedules (для генерации слотов)
func (r *RecurringScheduleRepository) GetAllActive(ctx context.Context) ([]*model.RecurringSchedule, error) {
	query := `
		SELECT ` + recurringColumns + `
		FROM recurring_schedules
		WHERE is_active = true
		ORDER BY teacher_id, weekday, id
	`

	return r.list(ctx, "get active recurring schedules", query)
}

// DeactivateGroup деактивирует всю группу
func (r *RecurringScheduleRepository) DeactivateGroup(ctx context.Context, groupID uuid.UUID) error {
	query := `
		UPDATE recurring_schedules
		SET is_active = false, updated_at = NOW()
		WHERE group_id = $1
	`

	_, err := r.db.Exec(ctx, query, groupID)
	return wrapErr("deactivate recurring group", err)
}

func (r *RecurringScheduleRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.RecurringSchedule, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	var schedules []*model.RecurringSchedule
	for rows.Next() {
		schedule, err := scanRecurring(rows)
		if err != nil {
			return nil, wrapErr("scan recurring schedule", err)
		}
		schedules = append(schedules, schedule)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}

	return schedules, nil
}
