// Package postgres implements the repository interfaces on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, so every repository can run
// either on the pool or inside a transaction
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// isNotFound проверяет является ли ошибка "строка не найдена"
func isNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeAdminShutdown        = "57P01"
	codeTooManyConnections   = "53300"
)

// wrapErr annotates err with the failing operation and tags unique violations
// and transient failures with the repository sentinels
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation:
			return fmt.Errorf("%s: %w: %s", op, repository.ErrDuplicate, pgErr.ConstraintName)
		case strings.HasPrefix(pgErr.Code, "08"),
			pgErr.Code == codeSerializationFailure,
			pgErr.Code == codeDeadlockDetected,
			pgErr.Code == codeAdminShutdown,
			pgErr.Code == codeTooManyConnections:
			return fmt.Errorf("%s: %w: %w", op, repository.ErrUnavailable, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		pgconn.Timeout(err) ||
		pgconn.SafeToRetry(err) {
		return fmt.Errorf("%s: %w: %w", op, repository.ErrUnavailable, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
