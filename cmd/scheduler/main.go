package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Freeeeeet/consultation_scheduler/internal/app"
	"github.com/Freeeeeet/consultation_scheduler/internal/cache"
	"github.com/Freeeeeet/consultation_scheduler/internal/config"
	"github.com/Freeeeeet/consultation_scheduler/internal/controller/rest"
	"github.com/Freeeeeet/consultation_scheduler/internal/events"
	"github.com/Freeeeeet/consultation_scheduler/internal/notify"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository/postgres"
	"github.com/Freeeeeet/consultation_scheduler/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Scheduler stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Scheduler stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting consultation scheduler",
		zap.String("storage", cfg.Storage),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("timezone", cfg.Location.String()),
	)

	store, health, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	viewCache, closeCache, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	bus := events.NewBus(events.BusConfig{
		Async:   cfg.EventWorkers > 0,
		Workers: cfg.EventWorkers,
		Logger:  logger.Named("events"),
	})
	defer bus.Close()

	if err := service.NewProjector(viewCache, logger.Named("projector")).Register(bus); err != nil {
		return fmt.Errorf("register projector: %w", err)
	}

	notifier, err := newNotifier(cfg, store, logger)
	if err != nil {
		return err
	}
	if err := notify.Register(bus, notifier); err != nil {
		return fmt.Errorf("register notifier: %w", err)
	}

	opts := []service.Option{service.WithLocation(cfg.Location)}
	slots := service.NewSlotService(store, bus, logger.Named("slots"), opts...)
	booking := service.NewBookingService(store, bus, logger.Named("booking"), opts...)

	srv := rest.NewServer(&rest.Options{
		Address:  cfg.HTTPAddr,
		Secret:   []byte(cfg.JWTSecret),
		Logger:   logger.Named("http"),
		Slots:    slots,
		Booking:  booking,
		Query:    service.NewQueryService(store, viewCache, cfg.ViewTTL, logger.Named("query")),
		Users:    service.NewUserService(store, logger.Named("users")),
		Messages: service.NewMessageService(store, logger.Named("messages")),
		Health:   health,
	})

	scheduler := app.NewScheduler(slots, booking, app.SchedulerConfig{
		WeeksAhead:    cfg.WeeksAhead,
		AuditInterval: cfg.AuditInterval,
	}, logger.Named("scheduler"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		scheduler.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, func(context.Context) error, func(), error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return memory.NewStore(), nil, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("ping database: %w", err)
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger.Named("migrator"))
	if err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	return postgres.NewStore(pool), pool.Ping, pool.Close, nil
}

func openCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Cache, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, using in-process view cache")
		return cache.NewMemory(), func() {}, nil
	}

	redisCfg := cache.DefaultRedisConfig()
	redisCfg.Addr = cfg.RedisAddr
	redisCfg.Password = cfg.RedisPassword
	redisCfg.DB = cfg.RedisDB

	c, err := cache.NewRedis(ctx, redisCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return c, func() {
		if err := c.Close(); err != nil {
			logger.Warn("Failed to close redis", zap.Error(err))
		}
	}, nil
}

func newNotifier(cfg *config.Config, store repository.Store, logger *zap.Logger) (notify.Notifier, error) {
	if cfg.TelegramToken == "" {
		logger.Info("TELEGRAM_TOKEN not set, notifications go to the log")
		return notify.NewLogNotifier(logger.Named("notify")), nil
	}

	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return notify.NewTelegramNotifier(b, store, logger.Named("notify")), nil
}
