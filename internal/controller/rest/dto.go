package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
)

const dateLayout = "2006-01-02"

type requestValidator struct {
	v *validator.Validate
}

func newValidator() echo.Validator {
	return &requestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (rv *requestValidator) Validate(i any) error {
	return rv.v.Struct(i)
}

// bind decodes the body and validates it
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return err
	}
	return c.Validate(dst)
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return id, nil
}

// Requests

type publishSlotRequest struct {
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Label string `json:"label" validate:"required"`
}

type publishWeeklyRequest struct {
	Weekdays   []int  `json:"weekdays" validate:"required,min=1,dive,min=0,max=6"`
	Label      string `json:"label" validate:"required"`
	WeeksAhead int    `json:"weeks_ahead" validate:"min=0"`
}

// Purpose проверяет сервис: роль важнее формы запроса
type requestBookingRequest struct {
	SlotID  int64  `json:"slot_id" validate:"required,gt=0"`
	Purpose string `json:"purpose"`
}

type decisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

type sendMessageRequest struct {
	ToID          int64  `json:"to_id" validate:"required,gt=0"`
	AppointmentID *int64 `json:"appointment_id" validate:"omitempty,gt=0"`
	Body          string `json:"body"`
}

type registerUserRequest struct {
	DisplayName string `json:"display_name" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	Role        string `json:"role" validate:"required,oneof=student teacher admin"`
	TelegramID  *int64 `json:"telegram_id"`
}

// Responses

type slotResponse struct {
	ID          int64            `json:"id"`
	TeacherID   int64            `json:"teacher_id"`
	Date        string           `json:"date"`
	Label       string           `json:"label"`
	Status      model.SlotStatus `json:"status"`
	RecurringID *int64           `json:"recurring_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

func newSlotResponse(s *model.TimeSlot) slotResponse {
	return slotResponse{
		ID:          s.ID,
		TeacherID:   s.TeacherID,
		Date:        s.Date.Format(dateLayout),
		Label:       s.Label,
		Status:      s.Status,
		RecurringID: s.RecurringID,
		CreatedAt:   s.CreatedAt,
	}
}

func newSlotResponses(slots []*model.TimeSlot) []slotResponse {
	out := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, newSlotResponse(s))
	}
	return out
}

type weeklyResponse struct {
	GroupID string `json:"group_id"`
	Created int    `json:"created"`
}
