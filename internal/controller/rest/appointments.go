package rest

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/service"
)

type appointmentAPI struct {
	booking *service.BookingService
	query   *service.QueryService
}

func (api *appointmentAPI) request(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	req := new(requestBookingRequest)
	if err := bind(c, req); err != nil {
		return err
	}

	appt, err := api.booking.RequestBooking(c.Request().Context(), caller, req.SlotID, req.Purpose)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, appt)
}

func (api *appointmentAPI) decide(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	req := new(decisionRequest)
	if err := bind(c, req); err != nil {
		return err
	}

	appt, err := api.booking.Decide(c.Request().Context(), caller, id, model.Decision(req.Decision))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, appt)
}

func (api *appointmentAPI) cancel(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	appt, err := api.booking.Cancel(c.Request().Context(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, appt)
}

func (api *appointmentAPI) listForStudent(c echo.Context) error {
	return api.list(c, api.query.ListForStudent)
}

func (api *appointmentAPI) listForTeacher(c echo.Context) error {
	return api.list(c, api.query.ListForTeacher)
}

type listFunc func(ctx context.Context, id int64, status model.AppointmentStatus) ([]*model.Appointment, error)

func (api *appointmentAPI) list(c echo.Context, fn listFunc) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	status, err := statusParam(c)
	if err != nil {
		return err
	}

	appts, err := fn(c.Request().Context(), id, status)
	if err != nil {
		return err
	}
	if appts == nil {
		appts = []*model.Appointment{}
	}
	return c.JSON(http.StatusOK, echo.Map{"appointments": appts})
}

func (api *appointmentAPI) bookingRate(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	rate, err := api.query.BookingRate(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rate)
}

func statusParam(c echo.Context) (model.AppointmentStatus, error) {
	raw := c.QueryParam("status")
	if raw == "" {
		return "", nil
	}
	status, ok := model.ParseAppointmentStatus(raw)
	if !ok {
		return "", echo.NewHTTPError(http.StatusBadRequest, "status must be pending, approved, rejected or cancelled")
	}
	return status, nil
}
