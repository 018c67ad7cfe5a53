package rest

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/Freeeeeet/consultation_scheduler/internal/apperr"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantKind   string
		wantReason string
		wantMsg    string
	}{
		{"invalid input", apperr.InvalidInput("op", "bad label"), http.StatusBadRequest, "invalid_input", "", "bad label"},
		{"forbidden", apperr.Forbidden("op", "nope"), http.StatusForbidden, "forbidden", "", "nope"},
		{"not found", apperr.NotFound("op", "slot not found"), http.StatusNotFound, "not_found", "", "slot not found"},
		{"conflict", apperr.Conflict("op", apperr.ReasonSlotUnavailable, "taken"), http.StatusConflict, "conflict", "slot_unavailable", "taken"},
		{"duplicate", apperr.Duplicate("op", "exists"), http.StatusConflict, "duplicate", "", "exists"},
		{"unavailable hides cause", apperr.Wrap(apperr.KindUnavailable, "op", "db down", errors.New("dial tcp")), http.StatusServiceUnavailable, "unavailable", "", "Service Unavailable"},
		{"internal hides cause", apperr.Wrap(apperr.KindInternal, "op", "boom", errors.New("secret")), http.StatusInternalServerError, "internal", "", "Internal Server Error"},
		{"invariant", apperr.Invariant("op", "slot 1 is open"), http.StatusInternalServerError, "internal", "invariant_violation", "slot 1 is open"},
		{"wrapped apperr", fmt.Errorf("handler: %w", apperr.NotFound("op", "gone")), http.StatusNotFound, "not_found", "", "gone"},
		{"echo error", echo.NewHTTPError(http.StatusUnauthorized, "missing"), http.StatusUnauthorized, "unauthorized", "", "missing"},
		{"foreign error", errors.New("unexpected"), http.StatusInternalServerError, "internal", "", "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := classify(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantKind, body.Kind)
			assert.Equal(t, tt.wantReason, body.Reason)
			assert.Equal(t, tt.wantMsg, body.Message)
		})
	}
}
