package v1

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/service"
)

func TestErrorResponseStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &service.ValidationError{Msg: "sessionId is required"}, http.StatusBadRequest},
		{"denied", &service.DeniedError{Reason: "nope"}, http.StatusForbidden},
		{"not found", fmt.Errorf("delegation dlg_1: %w", service.ErrNotFound), http.StatusNotFound},
		{"conflict", &service.ConflictError{Kind: "delegation", ID: "dlg_1", Current: "completed", Expected: "pending"}, http.StatusConflict},
		{"store", fmt.Errorf("failed to get session: %w", errors.New("disk I/O error")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			require.NoError(t, errorResponse(c, tt.err))
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}
