package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
)

// Pool is the part of *pgxpool.Pool the store depends on
type Pool interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is the pgx-backed repository.Store
type Store struct {
	pool Pool
	repos
}

var _ repository.Store = (*Store)(nil)

// repos bundles the repositories bound to one DBTX
type repos struct {
	slots        *SlotRepository
	appointments *AppointmentRepository
	users        *UserRepository
	messages     *MessageRepository
	recurring    *RecurringScheduleRepository
}

func newRepos(db DBTX) repos {
	return repos{
		slots:        NewSlotRepository(db),
		appointments: NewAppointmentRepository(db),
		users:        NewUserRepository(db),
		messages:     NewMessageRepository(db),
		recurring:    NewRecurringScheduleRepository(db),
	}
}

func (r repos) Slots() repository.SlotRepository { return r.slots }
func (r repos) Appointments() repository.AppointmentRepository { return r.appointments }
func (r repos) Users() repository.UserRepository { return r.users }
func (r repos) Messages() repository.MessageRepository { return r.messages }
func (r repos) Recurring() repository.RecurringScheduleRepository { return r.recurring }

func NewStore(pool Pool) *Store {
	return &Store{pool: pool, repos: newRepos(pool)}
}

// InTx runs fn inside a READ COMMITTED transaction. Slot and appointment writes
// are conditional on the previous status, which makes them safe at this level.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return wrapErr("begin transaction", err)
	}

	done := false
	defer func() {
		if !done {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(ctx, newRepos(tx)); err != nil {
		return err
	}

	done = true
	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit transaction", err)
	}
	return nil
}
