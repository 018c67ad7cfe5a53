package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Freeeeeet/consultation_scheduler/internal/service"
)

type messageAPI struct {
	messages *service.MessageService
}

func (api *messageAPI) send(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	req := new(sendMessageRequest)
	if err := bind(c, req); err != nil {
		return err
	}

	msg, err := api.messages.Send(c.Request().Context(), caller, service.SendInput{
		ToID:          req.ToID,
		AppointmentID: req.AppointmentID,
		Body:          req.Body,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msg)
}

func (api *messageAPI) inbox(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	msgs, err := api.messages.Inbox(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": msgs})
}

func (api *messageAPI) markRead(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := api.messages.MarkRead(c.Request().Context(), caller, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
