package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/service"
)

// errorResponse maps service errors to status codes.
func errorResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case service.IsValidation(err):
		status = http.StatusBadRequest
	case service.IsDenied(err):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case service.IsConflict(err):
		status = http.StatusConflict
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}

// queryLimit parses the optional limit query parameter. Zero means default.
func queryLimit(c echo.Context) (int, bool) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
