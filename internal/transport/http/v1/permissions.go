package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"
)

// CheckPermission evaluates and audits a permission request.
// POST /v1/permissions/check
func (h *Handler) CheckPermission(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.CheckPermissionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	decision, err := h.service.CheckPermission(ctx, req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, decision)
}

// LogPermission appends an externally made decision to the audit log.
// POST /v1/permissions/log
func (h *Handler) LogPermission(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.LogPermissionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	entry, err := h.service.LogPermission(ctx, req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, entry)
}

// ListDenied lists denied decisions, newest first.
// GET /v1/permissions/denied
func (h *Handler) ListDenied(c echo.Context) error {
	ctx := c.Request().Context()

	limit, ok := queryLimit(c)
	if !ok {
		return badRequest(c, "invalid limit")
	}

	return h.logs(c, func() ([]domain.PermissionLogEntry, error) {
		return h.service.ListDenied(ctx, limit)
	})
}

// ListRecent lists all decisions, newest first.
// GET /v1/permissions/recent
func (h *Handler) ListRecent(c echo.Context) error {
	ctx := c.Request().Context()

	limit, ok := queryLimit(c)
	if !ok {
		return badRequest(c, "invalid limit")
	}

	return h.logs(c, func() ([]domain.PermissionLogEntry, error) {
		return h.service.ListRecent(ctx, limit)
	})
}

// ListByAgent lists one caller's decisions, newest first.
// GET /v1/permissions/agents/:agent
func (h *Handler) ListByAgent(c echo.Context) error {
	ctx := c.Request().Context()

	limit, ok := queryLimit(c)
	if !ok {
		return badRequest(c, "invalid limit")
	}

	return h.logs(c, func() ([]domain.PermissionLogEntry, error) {
		return h.service.ListByAgent(ctx, c.Param("agent"), limit)
	})
}

func (h *Handler) logs(c echo.Context, list func() ([]domain.PermissionLogEntry, error)) error {
	entries, err := list()
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"logs": entries,
	})
}
