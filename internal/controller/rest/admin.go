package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/service"
)

type adminAPI struct {
	users *service.UserService
}

func (api *adminAPI) register(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	req := new(registerUserRequest)
	if err := bind(c, req); err != nil {
		return err
	}

	user, err := api.users.Register(c.Request().Context(), caller, service.RegisterInput{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Role:        model.Role(req.Role),
		TelegramID:  req.TelegramID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

func (api *adminAPI) approve(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	user, err := api.users.ApproveStudent(c.Request().Context(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
