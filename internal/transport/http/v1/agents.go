package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/hierarchy"
)

// ListAgents returns the static hierarchy.
// GET /v1/agents
func (h *Handler) ListAgents(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"agents":         hierarchy.Agents(),
		"sessionOwners":  hierarchy.SessionOwners(),
		"topOnlyActions": hierarchy.TopOnlyActions(),
	})
}
