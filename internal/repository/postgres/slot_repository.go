package postgres

import (
	"context"
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
)

type SlotRepository struct {
	db DBTX
}

func NewSlotRepository(db DBTX) *SlotRepository {
	return &SlotRepository{db: db}
}

const slotColumns = `id, teacher_id, date, label, start_minute, status, recurring_id, created_at, withdrawn_at`

func scanSlot(row scanner) (*model.TimeSlot, error) {
	var slot model.TimeSlot
	err := row.Scan(
		&slot.ID,
		&slot.TeacherID,
		&slot.Date,
		&slot.Label,
		&slot.StartMinute,
		&slot.Status,
		&slot.RecurringID,
		&slot.CreatedAt,
		&slot.WithdrawnAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.TimeSlot) error {
	query := `
		INSERT INTO time_slots (teacher_id, date, label, start_minute, status, recurring_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		slot.TeacherID,
		slot.Date,
		slot.Label,
		slot.StartMinute,
		slot.Status,
		slot.RecurringID,
	).Scan(&slot.ID, &slot.CreatedAt)

	return wrapErr("create slot", err)
}

// GetByID получает слот по ID, включая снятые с публикации
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.TimeSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM time_slots WHERE id = $1`

	slot, err := scanSlot(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, wrapErr("get slot by id", err)
	}

	return slot, nil
}

// GetForShare получает слот и держит разделяемую блокировку строки до конца транзакции.
// Переходы статуса ждут её снятия, поэтому слот и его записи читаются согласованно.
func (r *SlotRepository) GetForShare(ctx context.Context, id int64) (*model.TimeSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM time_slots WHERE id = $1 FOR SHARE`

	slot, err := scanSlot(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, wrapErr("lock slot", err)
	}

	return slot, nil
}

// ListOpen получает свободные слоты учителя начиная с даты
func (r *SlotRepository) ListOpen(ctx context.Context, teacherID int64, from time.Time) ([]*model.TimeSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM time_slots
		WHERE teacher_id = $1
		  AND status = 'open'
		  AND withdrawn_at IS NULL
		  AND date >= $2
		ORDER BY date, start_minute, label
	`

	return r.list(ctx, "list open slots", query, teacherID, from)
}

// ListReserved получает все занятые слоты (held и booked)
func (r *SlotRepository) ListReserved(ctx context.Context) ([]*model.TimeSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM time_slots
		WHERE status IN ('held', 'booked')
		ORDER BY id
	`

	return r.list(ctx, "list reserved slots", query)
}

func (r *SlotRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.TimeSlot, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	var slots []*model.TimeSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, wrapErr("scan slot", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}

	return slots, nil
}

// Stats считает опубликованные слоты учителя по статусам
func (r *SlotRepository) Stats(ctx context.Context, teacherID int64) (model.SlotStats, error) {
	query := `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = 'open'),
			count(*) FILTER (WHERE status = 'held'),
			count(*) FILTER (WHERE status = 'booked')
		FROM time_slots
		WHERE teacher_id = $1 AND withdrawn_at IS NULL
	`

	var stats model.SlotStats
	err := r.db.QueryRow(ctx, query, teacherID).Scan(
		&stats.Published,
		&stats.Open,
		&stats.Held,
		&stats.Booked,
	)
	if err != nil {
		return model.SlotStats{}, wrapErr("slot stats", err)
	}

	return stats, nil
}

// SetStatus переводит слот из одного статуса в другой.
// Условие на предыдущий статус делает проверку и запись одной операцией.
func (r *SlotRepository) SetStatus(ctx context.Context, id int64, from, to model.SlotStatus) (bool, error) {
	query := `
		UPDATE time_slots
		SET status = $3
		WHERE id = $1 AND status = $2 AND withdrawn_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		return false, wrapErr("set slot status", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Withdraw снимает свободный слот с публикации
func (r *SlotRepository) Withdraw(ctx context.Context, id int64, at time.Time) (bool, error) {
	query := `
		UPDATE time_slots
		SET withdrawn_at = $2
		WHERE id = $1 AND status = 'open' AND withdrawn_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return false, wrapErr("withdraw slot", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Exists проверяет существование слота учителя с той же датой и временем
func (r *SlotRepository) Exists(ctx context.Context, teacherID int64, date time.Time, label string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM time_slots
			WHERE teacher_id = $1 AND date = $2 AND label = $3 AND withdrawn_at IS NULL
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, teacherID, date, label).Scan(&exists)
	if err != nil {
		return false, wrapErr("check slot exists", err)
	}

	return exists, nil
}
