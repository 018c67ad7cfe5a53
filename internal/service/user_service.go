package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/apperr"
	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
)

type UserService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewUserService(store repository.Store, logger *zap.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger,
	}
}

type RegisterInput struct {
	DisplayName string
	Email       string
	Role        model.Role
	TelegramID  *int64
}

// Register создаёт пользователя. Студенты создаются неодобренными.
func (s *UserService) Register(ctx context.Context, caller model.Caller, in RegisterInput) (*model.User, error) {
	const op = "users.Register"

	if !caller.IsAdmin() {
		s.logger.Warn("Forbidden user registration", zap.Int64("caller_id", caller.ID))
		return nil, apperr.Forbidden(op, "only admins can register users")
	}

	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		return nil, apperr.InvalidInput(op, "display name is required")
	}
	if !in.Role.Valid() {
		return nil, apperr.InvalidInput(op, "role must be student, teacher or admin")
	}

	user := &model.User{
		Role:        in.Role,
		DisplayName: name,
		Email:       strings.TrimSpace(in.Email),
		Approved:    in.Role != model.RoleStudent,
		TelegramID:  in.TelegramID,
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, storageErr(op, err)
	}

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	return user, nil
}

// ApproveStudent разрешает студенту бронировать
func (s *UserService) ApproveStudent(ctx context.Context, caller model.Caller, studentID int64) (*model.User, error) {
	const op = "users.ApproveStudent"

	if !caller.IsAdmin() {
		s.logger.Warn("Forbidden student approval", zap.Int64("caller_id", caller.ID))
		return nil, apperr.Forbidden(op, "only admins can approve students")
	}

	user, err := s.store.Users().GetByID(ctx, studentID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if user == nil {
		return nil, apperr.NotFound(op, "user not found")
	}
	if user.Role != model.RoleStudent {
		return nil, apperr.InvalidInput(op, "user is not a student")
	}

	ok, err := s.store.Users().Approve(ctx, studentID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if !ok {
		return nil, apperr.Conflict(op, apperr.ReasonAlreadyApproved, "student is already approved")
	}

	user.Approved = true
	s.logger.Info("Student approved", zap.Int64("student_id", studentID), zap.Int64("admin_id", caller.ID))

	return user, nil
}

// Get получает пользователя по ID
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	const op = "users.Get"

	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if user == nil {
		return nil, apperr.NotFound(op, "user not found")
	}
	return user, nil
}
