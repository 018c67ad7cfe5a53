package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrBusClosed = errors.New("event bus is closed")

type BusConfig struct {
	// Async runs handlers on a bounded worker pool instead of the publisher's goroutine
	Async bool

	// Workers bounds concurrent async handlers
	Workers int

	Logger *zap.Logger
}

// Bus is an in-process publish/subscribe dispatcher. Handler errors are
// logged and never reach the publisher.
type Bus struct {
	mu          sync.RWMutex
	handlers    map[Type][]Handler
	allHandlers []Handler
	async       bool
	workers     chan struct{}
	logger      *zap.Logger
	closed      bool
	closeCh     chan struct{}
	wg          sync.WaitGroup
}

var _ Publisher = (*Bus)(nil)

func NewBus(cfg BusConfig) *Bus {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}

	return &Bus{
		handlers: make(map[Type][]Handler),
		async:    cfg.Async,
		workers:  make(chan struct{}, cfg.Workers),
		logger:   cfg.Logger,
		closeCh:  make(chan struct{}),
	}
}

// Subscribe registers a handler for one event type
func (b *Bus) Subscribe(t Type, h Handler) error {
	if h == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}

	b.handlers[t] = append(b.handlers[t], h)
	return nil
}

// SubscribeAll registers a handler for every event type
func (b *Bus) SubscribeAll(h Handler) error {
	if h == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}

	b.allHandlers = append(b.allHandlers, h)
	return nil
}

func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}

	handlers := make([]Handler, 0, len(b.handlers[e.Type])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[e.Type]...)
	handlers = append(handlers, b.allHandlers...)

	// Add under the read lock so Close cannot start waiting before these are counted
	if b.async {
		b.wg.Add(len(handlers))
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		if b.async {
			go b.runAsync(e, h)
			continue
		}
		b.run(ctx, e, h)
	}

	return nil
}

func (b *Bus) runAsync(e Event, h Handler) {
	defer b.wg.Done()

	select {
	case b.workers <- struct{}{}:
		defer func() { <-b.workers }()
	case <-b.closeCh:
		b.logger.Warn("dropped event on shutdown", zap.String("type", string(e.Type)), zap.String("event_id", e.ID.String()))
		return
	}

	// Async handlers outlive the request that published the event
	b.run(context.Background(), e, h)
}

func (b *Bus) run(ctx context.Context, e Event, h Handler) {
	start := time.Now()
	err := h(ctx, e)
	if err != nil {
		b.logger.Error("event handler failed",
			zap.String("type", string(e.Type)),
			zap.String("event_id", e.ID.String()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
	}
}

// Close stops accepting events and waits for running handlers
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.closeCh)
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("event bus closed")
	return nil
}
