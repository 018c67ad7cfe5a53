package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/apperr"
	"github.com/Freeeeeet/consultation_scheduler/internal/service"
)

// SlotGenerator публикует слоты по активным еженедельным расписаниям
type SlotGenerator interface {
	GenerateRecurringSlots(ctx context.Context, weeksAhead int) (int, error)
}

// Auditor ищет рассинхрон между слотами и записями
type Auditor interface {
	Audit(ctx context.Context) ([]service.Inconsistency, error)
}

type SchedulerConfig struct {
	WeeksAhead         int
	GenerationInterval time.Duration // 24h по умолчанию
	AuditInterval      time.Duration
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	generator SlotGenerator
	auditor   Auditor
	cfg       SchedulerConfig
	logger    *zap.Logger

	stopOnce sync.Once
	stopChan chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(generator SlotGenerator, auditor Auditor, cfg SchedulerConfig, logger *zap.Logger) *Scheduler {
	if cfg.GenerationInterval <= 0 {
		cfg.GenerationInterval = 24 * time.Hour
	}
	if cfg.AuditInterval <= 0 {
		cfg.AuditInterval = 10 * time.Minute
	}

	return &Scheduler{
		generator: generator,
		auditor:   auditor,
		cfg:       cfg,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Run выполняет задачи до отмены ctx или вызова Stop
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting background scheduler",
		zap.Duration("generation_interval", s.cfg.GenerationInterval),
		zap.Duration("audit_interval", s.cfg.AuditInterval),
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.loop(ctx, "slot generation", s.cfg.GenerationInterval, s.generateSlots)
	}()
	go func() {
		defer wg.Done()
		s.loop(ctx, "audit", s.cfg.AuditInterval, s.audit)
	}()
	wg.Wait()

	return nil
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
}

// loop запускает task сразу и затем каждые interval
func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, task func(context.Context)) {
	task(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			task(ctx)
		case <-s.stopChan:
			s.logger.Info("Background task stopped", zap.String("task", name))
			return
		case <-ctx.Done():
			s.logger.Info("Background task cancelled", zap.String("task", name))
			return
		}
	}
}

func (s *Scheduler) generateSlots(ctx context.Context) {
	created, err := s.generator.GenerateRecurringSlots(ctx, s.cfg.WeeksAhead)
	if err != nil {
		s.logger.Error("Failed to generate slots", zap.Error(err))
		return
	}

	s.logger.Info("Automatic slot generation completed", zap.Int("created", created))
}

func (s *Scheduler) audit(ctx context.Context) {
	found, err := s.auditor.Audit(ctx)
	if err != nil {
		s.logger.Error("Audit failed", zap.Error(err))
	}

	for _, inc := range found {
		err := apperr.Invariant("scheduler.Audit", inc.Problem)
		s.logger.Error("Slot and appointment state disagree",
			zap.Int64("slot_id", inc.SlotID),
			zap.Int64s("appointment_ids", inc.AppointmentIDs),
			zap.String("kind", apperr.KindOf(err).String()),
			zap.Error(err),
		)
	}

	if err == nil && len(found) == 0 {
		s.logger.Debug("Audit found no inconsistencies")
	}
}
