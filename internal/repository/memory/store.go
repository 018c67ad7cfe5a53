// Package memory is an in-process repository.Store used by tests and by
// STORAGE=memory runs. It mirrors the uniqueness rules of the postgres schema.
package memory

import (
	"context"
	"sync"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
)

type tables struct {
	slots        map[int64]*model.TimeSlot
	appointments map[int64]*model.Appointment
	users        map[int64]*model.User
	messages     map[int64]*model.Message
	recurring    map[int64]*model.RecurringSchedule

	slotSeq, appointmentSeq, userSeq, messageSeq, recurringSeq int64
}

func newTables() *tables {
	return &tables{
		slots:        make(map[int64]*model.TimeSlot),
		appointments: make(map[int64]*model.Appointment),
		users:        make(map[int64]*model.User),
		messages:     make(map[int64]*model.Message),
		recurring:    make(map[int64]*model.RecurringSchedule),
	}
}

func (t *tables) clone() *tables {
	c := &tables{
		slots:          make(map[int64]*model.TimeSlot, len(t.slots)),
		appointments:   make(map[int64]*model.Appointment, len(t.appointments)),
		users:          make(map[int64]*model.User, len(t.users)),
		messages:       make(map[int64]*model.Message, len(t.messages)),
		recurring:      make(map[int64]*model.RecurringSchedule, len(t.recurring)),
		slotSeq:        t.slotSeq,
		appointmentSeq: t.appointmentSeq,
		userSeq:        t.userSeq,
		messageSeq:     t.messageSeq,
		recurringSeq:   t.recurringSeq,
	}
	for id, v := range t.slots {
		c.slots[id] = copySlot(v)
	}
	for id, v := range t.appointments {
		a := *v
		c.appointments[id] = &a
	}
	for id, v := range t.users {
		c.users[id] = copyUser(v)
	}
	for id, v := range t.messages {
		c.messages[id] = copyMessage(v)
	}
	for id, v := range t.recurring {
		r := *v
		c.recurring[id] = &r
	}
	return c
}

// access serializes work on the tables. The store guards them with its
// mutex; a transaction owns a private copy and needs no locking.
type access interface {
	read(fn func(t *tables))
	write(fn func(t *tables))
}

type Store struct {
	mu   sync.RWMutex
	data *tables
	repos
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	s := &Store{data: newTables()}
	s.repos = newRepos(s)
	return s
}

func (s *Store) read(fn func(t *tables)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(fn func(t *tables)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data)
}

// InTx runs fn against a copy of the data while holding the write lock, so
// transactions are serialized. The copy replaces the data only when fn
// succeeds. fn must use the tx it is given: calling the store itself from
// inside fn deadlocks.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := &txAccess{t: s.data.clone()}
	if err := fn(ctx, newRepos(staged)); err != nil {
		return err
	}

	s.data = staged.t
	return nil
}

type txAccess struct {
	t *tables
}

func (a *txAccess) read(fn func(t *tables))  { fn(a.t) }
func (a *txAccess) write(fn func(t *tables)) { fn(a.t) }

type repos struct {
	slots        *SlotRepository
	appointments *AppointmentRepository
	users        *UserRepository
	messages     *MessageRepository
	recurring    *RecurringScheduleRepository
}

func newRepos(db access) repos {
	return repos{
		slots:        &SlotRepository{db: db},
		appointments: &AppointmentRepository{db: db},
		users:        &UserRepository{db: db},
		messages:     &MessageRepository{db: db},
		recurring:    &RecurringScheduleRepository{db: db},
	}
}

func (r repos) Slots() repository.SlotRepository { return r.slots }
func (r repos) Appointments() repository.AppointmentRepository { return r.appointments }
func (r repos) Users() repository.UserRepository { return r.users }
func (r repos) Messages() repository.MessageRepository { return r.messages }
func (r repos) Recurring() repository.RecurringScheduleRepository { return r.recurring }

func copySlot(s *model.TimeSlot) *model.TimeSlot {
	c := *s
	if s.RecurringID != nil {
		id := *s.RecurringID
		c.RecurringID = &id
	}
	if s.WithdrawnAt != nil {
		at := *s.WithdrawnAt
		c.WithdrawnAt = &at
	}
	return &c
}

func copyUser(u *model.User) *model.User {
	c := *u
	if u.TelegramID != nil {
		id := *u.TelegramID
		c.TelegramID = &id
	}
	return &c
}

func copyMessage(m *model.Message) *model.Message {
	c := *m
	if m.AppointmentID != nil {
		id := *m.AppointmentID
		c.AppointmentID = &id
	}
	return &c
}
