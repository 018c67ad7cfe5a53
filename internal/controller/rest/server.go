// Package rest exposes the scheduling engine over HTTP with echo.
package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/service"
)

type (
	Options struct {
		Address        string
		Secret         []byte
		Logger         *zap.Logger
		DisableReqLogs bool

		Slots    *service.SlotService
		Booking  *service.BookingService
		Query    *service.QueryService
		Users    *service.UserService
		Messages *service.MessageService

		// Health проверяет хранилище, nil = всегда ok
		Health func(ctx context.Context) error
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.HidePort = true
	s.app.Validator = newValidator()
	s.app.HTTPErrorHandler = newHTTPErrorHandler(s.opts.Logger)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.Recover())
	if !s.opts.DisableReqLogs {
		s.app.Use(requestLogger(s.opts.Logger))
	}

	s.app.GET("/health", s.health)

	api := s.app.Group("/api", authMiddleware(s.opts.Secret))

	slots := slotAPI{slots: s.opts.Slots}
	api.POST("/slots", slots.publish)
	api.DELETE("/slots/:id", slots.withdraw)
	api.GET("/teachers/:id/slots", slots.listOpen)
	api.POST("/recurring", slots.publishWeekly)
	api.DELETE("/recurring/:group", slots.stopWeekly)

	appts := appointmentAPI{booking: s.opts.Booking, query: s.opts.Query}
	api.POST("/appointments", appts.request)
	api.POST("/appointments/:id/decision", appts.decide)
	api.POST("/appointments/:id/cancel", appts.cancel)
	ownerOnly := selfOrAdmin(s.opts.Logger)
	api.GET("/students/:id/appointments", appts.listForStudent, ownerOnly)
	api.GET("/teachers/:id/appointments", appts.listForTeacher, ownerOnly)
	api.GET("/teachers/:id/booking-rate", appts.bookingRate, ownerOnly)

	msgs := messageAPI{messages: s.opts.Messages}
	api.POST("/messages", msgs.send)
	api.GET("/messages", msgs.inbox)
	api.POST("/messages/:id/read", msgs.markRead)

	admin := adminAPI{users: s.opts.Users}
	api.POST("/admin/users", admin.register)
	api.POST("/admin/students/:id/approve", admin.approve)
}

func (s *server) Start() error {
	s.opts.Logger.Info("HTTP server listening", zap.String("address", s.opts.Address))

	err := s.app.Start(s.opts.Address)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) health(c echo.Context) error {
	if s.opts.Health != nil {
		if err := s.opts.Health(c.Request().Context()); err != nil {
			s.opts.Logger.Warn("Health check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("HTTP request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	})
}
