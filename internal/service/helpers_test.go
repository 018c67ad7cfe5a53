package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/cache"
	"github.com/Freeeeeet/consultation_scheduler/internal/events"
	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/consultation_scheduler/internal/service"
)

var (
	now       = time.Date(2025, 2, 20, 10, 0, 0, 0, time.UTC)
	slotDate  = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	adminUser = model.Caller{ID: 1000, Role: model.RoleAdmin, Approved: true}
)

type env struct {
	store    *memory.Store
	bus      *events.Bus
	cache    *cache.Memory
	slots    *service.SlotService
	booking  *service.BookingService
	query    *service.QueryService
	users    *service.UserService
	messages *service.MessageService

	mu     sync.Mutex
	events []events.Event
}

func newEnv(t *testing.T) *env {
	t.Helper()

	logger := zap.NewNop()
	e := &env{
		store: memory.NewStore(),
		bus:   events.NewBus(events.BusConfig{Logger: logger}),
		cache: cache.NewMemory(),
	}
	t.Cleanup(func() { _ = e.bus.Close() })

	opts := []service.Option{service.WithClock(func() time.Time { return now })}
	e.slots = service.NewSlotService(e.store, e.bus, logger, opts...)
	e.booking = service.NewBookingService(e.store, e.bus, logger, opts...)
	e.query = service.NewQueryService(e.store, e.cache, time.Minute, logger)
	e.users = service.NewUserService(e.store, logger)
	e.messages = service.NewMessageService(e.store, logger)

	require.NoError(t, service.NewProjector(e.cache, logger).Register(e.bus))
	require.NoError(t, e.bus.SubscribeAll(func(_ context.Context, ev events.Event) error {
		e.mu.Lock()
		e.events = append(e.events, ev)
		e.mu.Unlock()
		return nil
	}))

	return e
}

func (e *env) teacher(t *testing.T, name string) model.Caller {
	t.Helper()
	u, err := e.users.Register(context.Background(), adminUser, service.RegisterInput{DisplayName: name, Role: model.RoleTeacher})
	require.NoError(t, err)
	return u.Caller()
}

func (e *env) student(t *testing.T, name string, approved bool) model.Caller {
	t.Helper()
	ctx := context.Background()
	u, err := e.users.Register(ctx, adminUser, service.RegisterInput{DisplayName: name, Role: model.RoleStudent})
	require.NoError(t, err)
	if approved {
		u, err = e.users.ApproveStudent(ctx, adminUser, u.ID)
		require.NoError(t, err)
	}
	return u.Caller()
}

func (e *env) slot(t *testing.T, teacher model.Caller, label string) *model.TimeSlot {
	t.Helper()
	slot, err := e.slots.PublishSlot(context.Background(), teacher, slotDate, label)
	require.NoError(t, err)
	return slot
}

func (e *env) slotStatus(t *testing.T, id int64) model.SlotStatus {
	t.Helper()
	slot, err := e.store.Slots().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, slot)
	return slot.Status
}
