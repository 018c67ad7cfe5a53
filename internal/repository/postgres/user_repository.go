package postgres

import (
	"context"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, role, display_name, email, approved, telegram_id, created_at`

func scanUser(row scanner) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Role,
		&user.DisplayName,
		&user.Email,
		&user.Approved,
		&user.TelegramID,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create создаёт нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (role, display_name, email, approved, telegram_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		user.Role,
		user.DisplayName,
		user.Email,
		user.Approved,
		user.TelegramID,
	).Scan(&user.ID, &user.CreatedAt)

	return wrapErr("create user", err)
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, wrapErr("get user by id", err)
	}

	return user, nil
}

// GetByIDs получает пользователей по списку ID
func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) ORDER BY id`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, wrapErr("get users by ids", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, wrapErr("scan user", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate users", err)
	}

	return users, nil
}

// Approve одобряет студента
func (r *UserRepository) Approve(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE users
		SET approved = true
		WHERE id = $1 AND role = 'student' AND approved = false
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, wrapErr("approve student", err)
	}

	return tag.RowsAffected() == 1, nil
}
