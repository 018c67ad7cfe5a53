// Package notify delivers appointment events to the people involved.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/events"
	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
)

// AppointmentEvents are the events notifiers subscribe to
var AppointmentEvents = []events.Type{
	events.AppointmentRequested,
	events.AppointmentApproved,
	events.AppointmentRejected,
	events.AppointmentCancelled,
}

// Notifier handles one appointment event
type Notifier interface {
	Notify(ctx context.Context, e events.Event) error
}

// Register subscribes n to every appointment event on the bus
func Register(bus *events.Bus, n Notifier) error {
	for _, t := range AppointmentEvents {
		if err := bus.Subscribe(t, n.Notify); err != nil {
			return fmt.Errorf("subscribe %s: %w", t, err)
		}
	}
	return nil
}

// Sender is the part of *bot.Bot the notifier uses
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramNotifier sends a plain-text message to every party of the
// appointment that has a Telegram id, except the one who acted.
type TelegramNotifier struct {
	sender Sender
	store  repository.Store
	logger *zap.Logger
}

func NewTelegramNotifier(sender Sender, store repository.Store, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, store: store, logger: logger}
}

func (n *TelegramNotifier) Notify(ctx context.Context, e events.Event) error {
	users, err := n.store.Users().GetByIDs(ctx, []int64{e.StudentID, e.TeacherID})
	if err != nil {
		return fmt.Errorf("get parties: %w", err)
	}

	slot, err := n.store.Slots().GetByID(ctx, e.SlotID)
	if err != nil {
		return fmt.Errorf("get slot: %w", err)
	}

	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.DisplayName
	}

	sent := 0
	for _, u := range users {
		if u.TelegramID == nil || u.ID == e.ActorID {
			continue
		}

		_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: *u.TelegramID,
			Text:   Text(e, slot, names[e.ActorID]),
		})
		if err != nil {
			n.logger.Error("Failed to send notification",
				zap.Int64("user_id", u.ID),
				zap.Int64("telegram_id", *u.TelegramID),
				zap.String("type", string(e.Type)),
				zap.Error(err),
			)
			continue
		}
		sent++
	}

	n.logger.Debug("Notifications sent",
		zap.Int64("appointment_id", e.AppointmentID),
		zap.String("type", string(e.Type)),
		zap.Int("sent", sent),
	)
	return nil
}

// LogNotifier writes notifications to the log when no bot is configured
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, e events.Event) error {
	n.logger.Info("Appointment notification",
		zap.String("type", string(e.Type)),
		zap.Int64("appointment_id", e.AppointmentID),
		zap.Int64("student_id", e.StudentID),
		zap.Int64("teacher_id", e.TeacherID),
		zap.Int64("actor_id", e.ActorID),
	)
	return nil
}

// Text renders the notification for an event. slot may be nil.
func Text(e events.Event, slot *model.TimeSlot, actor string) string {
	if actor == "" {
		actor = "Someone"
	}

	when := fmt.Sprintf("slot #%d", e.SlotID)
	if slot != nil {
		when = fmt.Sprintf("%s %s", slot.Date.Format(time.DateOnly), slot.Label)
	}

	switch e.Type {
	case events.AppointmentRequested:
		return fmt.Sprintf("New consultation request #%d from %s for %s.", e.AppointmentID, actor, when)
	case events.AppointmentApproved:
		return fmt.Sprintf("Your consultation #%d on %s was approved by %s.", e.AppointmentID, when, actor)
	case events.AppointmentRejected:
		return fmt.Sprintf("Your consultation request #%d for %s was rejected by %s.", e.AppointmentID, when, actor)
	case events.AppointmentCancelled:
		return fmt.Sprintf("Consultation #%d on %s was cancelled by %s.", e.AppointmentID, when, actor)
	default:
		return fmt.Sprintf("Consultation #%d: %s.", e.AppointmentID, e.Type)
	}
}
