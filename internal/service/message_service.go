package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/apperr"
	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
)

const MaxMessageLength = 2000

// MessageService passes plain notes between users. A message may reference an
// appointment, in which case sender and recipient must be its two parties.
type MessageService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewMessageService(store repository.Store, logger *zap.Logger) *MessageService {
	return &MessageService{store: store, logger: logger}
}

type SendInput struct {
	ToID          int64
	AppointmentID *int64
	Body          string
}

func (s *MessageService) Send(ctx context.Context, caller model.Caller, in SendInput) (*model.Message, error) {
	const op = "messages.Send"

	body := strings.TrimSpace(in.Body)
	if n := utf8.RuneCountInString(body); n == 0 || n > MaxMessageLength {
		return nil, apperr.InvalidInput(op, fmt.Sprintf("body must be 1..%d characters", MaxMessageLength))
	}
	if in.ToID == caller.ID {
		return nil, apperr.InvalidInput(op, "cannot message yourself")
	}

	recipient, err := s.store.Users().GetByID(ctx, in.ToID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if recipient == nil {
		return nil, apperr.NotFound(op, "recipient not found")
	}

	if in.AppointmentID != nil {
		appt, err := s.store.Appointments().GetByID(ctx, *in.AppointmentID)
		if err != nil {
			return nil, storageErr(op, err)
		}
		if appt == nil {
			return nil, apperr.NotFound(op, "appointment not found")
		}
		if !appt.IsParty(caller.ID) || appt.Counterpart(caller.ID) != in.ToID {
			s.logger.Warn("Forbidden appointment message",
				zap.Int64("caller_id", caller.ID),
				zap.Int64("appointment_id", appt.ID),
			)
			return nil, apperr.Forbidden(op, "only the appointment's parties can message about it")
		}
	}

	msg := &model.Message{
		FromID:        caller.ID,
		ToID:          in.ToID,
		AppointmentID: in.AppointmentID,
		Body:          body,
	}
	if err := s.store.Messages().Create(ctx, msg); err != nil {
		return nil, storageErr(op, err)
	}

	s.logger.Debug("Message sent", zap.Int64("message_id", msg.ID), zap.Int64("from_id", msg.FromID), zap.Int64("to_id", msg.ToID))

	return msg, nil
}

// Inbox returns the caller's received messages, newest first
func (s *MessageService) Inbox(ctx context.Context, caller model.Caller) ([]*model.Message, error) {
	msgs, err := s.store.Messages().ListForRecipient(ctx, caller.ID)
	if err != nil {
		return nil, storageErr("messages.Inbox", err)
	}
	if msgs == nil {
		msgs = []*model.Message{}
	}
	return msgs, nil
}

func (s *MessageService) MarkRead(ctx context.Context, caller model.Caller, messageID int64) error {
	const op = "messages.MarkRead"

	msg, err := s.store.Messages().GetByID(ctx, messageID)
	if err != nil {
		return storageErr(op, err)
	}
	if msg == nil {
		return apperr.NotFound(op, "message not found")
	}
	if msg.ToID != caller.ID {
		return apperr.Forbidden(op, "only the recipient can mark a message read")
	}

	return storageErr(op, s.store.Messages().MarkRead(ctx, messageID))
}
