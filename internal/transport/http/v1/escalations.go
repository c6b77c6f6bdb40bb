package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"
)

// CreateEscalation builds a handoff packet for a conversation.
// POST /v1/escalations
func (h *Handler) CreateEscalation(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.CreateEscalationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	resp, err := h.service.CreateEscalation(ctx, req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, resp)
}

// CheckEscalation runs the trigger classifier on a message.
// POST /v1/escalations/check
func (h *Handler) CheckEscalation(c echo.Context) error {
	var req domain.CheckEscalationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	resp, err := h.service.CheckEscalation(req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// ListPendingEscalations lists escalations awaiting a decision.
// GET /v1/escalations/pending
func (h *Handler) ListPendingEscalations(c echo.Context) error {
	ctx := c.Request().Context()

	limit, ok := queryLimit(c)
	if !ok {
		return badRequest(c, "invalid limit")
	}

	list, err := h.service.ListPendingEscalations(ctx, limit)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"escalations": list,
	})
}

// GetEscalation handles getting an escalation.
// GET /v1/escalations/:escalation_id
func (h *Handler) GetEscalation(c echo.Context) error {
	ctx := c.Request().Context()

	esc, err := h.service.GetEscalation(ctx, c.Param("escalation_id"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, esc)
}

// ResolveEscalation resolves or dismisses a pending escalation.
// POST /v1/escalations/:escalation_id/resolve
func (h *Handler) ResolveEscalation(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.ResolveEscalationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	esc, err := h.service.ResolveEscalation(ctx, c.Param("escalation_id"), req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, esc)
}
