package postgres

import (
	"context"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `id, from_id, to_id, appointment_id, body, is_read, created_at`

func scanMessage(row scanner) (*model.Message, error) {
	var msg model.Message
	err := row.Scan(
		&msg.ID,
		&msg.FromID,
		&msg.ToID,
		&msg.AppointmentID,
		&msg.Body,
		&msg.Read,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Create сохраняет сообщение
func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	query := `
		INSERT INTO messages (from_id, to_id, appointment_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		msg.FromID,
		msg.ToID,
		msg.AppointmentID,
		msg.Body,
	).Scan(&msg.ID, &msg.CreatedAt)

	return wrapErr("create message", err)
}

// GetByID получает сообщение по ID
func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	msg, err := scanMessage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, wrapErr("get message by id", err)
	}

	return msg, nil
}

// ListForRecipient получает входящие сообщения пользователя
func (r *MessageRepository) ListForRecipient(ctx context.Context, userID int64) ([]*model.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE to_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, wrapErr("list messages", err)
	}
	defer rows.Close()

	var msgs []*model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, wrapErr("scan message", err)
		}
		msgs = append(msgs, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapErr("list messages", err)
	}

	return msgs, nil
}

// MarkRead помечает сообщение прочитанным
func (r *MessageRepository) MarkRead(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE messages SET is_read = true WHERE id = $1`, id)
	return wrapErr("mark message read", err)
}
