package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListActivity lists recorded events, newest first.
// GET /v1/activity?session_id=&limit=
func (h *Handler) ListActivity(c echo.Context) error {
	ctx := c.Request().Context()

	limit, ok := queryLimit(c)
	if !ok {
		return badRequest(c, "invalid limit")
	}

	events, err := h.service.ListActivity(ctx, c.QueryParam("session_id"), limit)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": events,
	})
}
