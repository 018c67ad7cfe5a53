package rest

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Freeeeeet/consultation_scheduler/internal/service"
)

type slotAPI struct {
	slots *service.SlotService
}

func (api *slotAPI) publish(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	req := new(publishSlotRequest)
	if err := bind(c, req); err != nil {
		return err
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	slot, err := api.slots.PublishSlot(c.Request().Context(), caller, date, req.Label)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newSlotResponse(slot))
}

func (api *slotAPI) withdraw(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := api.slots.WithdrawSlot(c.Request().Context(), caller, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (api *slotAPI) listOpen(c echo.Context) error {
	teacherID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var from time.Time
	if raw := c.QueryParam("from"); raw != "" {
		from, err = time.Parse(dateLayout, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "from must be YYYY-MM-DD")
		}
	}

	slots, err := api.slots.ListOpenSlots(c.Request().Context(), teacherID, from)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": newSlotResponses(slots)})
}

func (api *slotAPI) publishWeekly(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	req := new(publishWeeklyRequest)
	if err := bind(c, req); err != nil {
		return err
	}

	groupID, created, err := api.slots.PublishWeekly(c.Request().Context(), caller, req.Weekdays, req.Label, req.WeeksAhead)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, weeklyResponse{GroupID: groupID.String(), Created: created})
}

func (api *slotAPI) stopWeekly(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	groupID, err := uuid.Parse(c.Param("group"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "group must be a UUID")
	}

	if err := api.slots.StopWeekly(c.Request().Context(), caller, groupID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
