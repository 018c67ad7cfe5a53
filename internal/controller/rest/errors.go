package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/apperr"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindInvalidInput: http.StatusBadRequest,
	apperr.KindForbidden:    http.StatusForbidden,
	apperr.KindNotFound:     http.StatusNotFound,
	apperr.KindConflict:     http.StatusConflict,
	apperr.KindDuplicate:    http.StatusConflict,
	apperr.KindUnavailable:  http.StatusServiceUnavailable,
	apperr.KindInternal:     http.StatusInternalServerError,
}

// newHTTPErrorHandler returns an echo.HTTPErrorHandler that knows how to handle our errors
func newHTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code, body := classify(err)

		if code >= http.StatusInternalServerError {
			logger.Error("Request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		if c.Response().Committed {
			return
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, errorResponse{Error: body})
		}
		if err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
	}
}

func classify(err error) (int, errorBody) {
	var (
		appErr  *apperr.Error
		httpErr *echo.HTTPError
		valErrs validator.ValidationErrors
	)

	switch {
	case errors.As(err, &appErr):
		code, ok := kindStatus[appErr.Kind]
		if !ok {
			code = http.StatusInternalServerError
		}
		msg := appErr.Message
		if appErr.Kind == apperr.KindInternal || appErr.Kind == apperr.KindUnavailable {
			// причину не раскрываем, она в логах
			msg = http.StatusText(code)
			if appErr.Reason == apperr.ReasonInvariantViolation {
				msg = appErr.Message
			}
		}
		return code, errorBody{Kind: appErr.Kind.String(), Reason: string(appErr.Reason), Message: msg}

	case errors.As(err, &valErrs):
		fields := make([]string, 0, len(valErrs))
		for _, fe := range valErrs {
			fields = append(fields, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
		}
		return http.StatusBadRequest, errorBody{
			Kind:    apperr.KindInvalidInput.String(),
			Message: strings.Join(fields, "; "),
		}

	case errors.As(err, &httpErr):
		return httpErr.Code, errorBody{Kind: httpKind(httpErr.Code), Message: fmt.Sprint(httpErr.Message)}

	default:
		return http.StatusInternalServerError, errorBody{
			Kind:    apperr.KindInternal.String(),
			Message: http.StatusText(http.StatusInternalServerError),
		}
	}
}

func httpKind(code int) string {
	switch code {
	case http.StatusBadRequest:
		return apperr.KindInvalidInput.String()
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return apperr.KindForbidden.String()
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return apperr.KindNotFound.String()
	case http.StatusServiceUnavailable:
		return apperr.KindUnavailable.String()
	}
	if code >= http.StatusInternalServerError {
		return apperr.KindInternal.String()
	}
	return apperr.KindInvalidInput.String()
}
