package v1

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"
)

// CreateDelegation handles delegation creation.
// POST /v1/delegations
func (h *Handler) CreateDelegation(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.CreateDelegationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	resp, err := h.service.CreateDelegation(ctx, req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, resp)
}

// SuggestTarget returns the routing heuristic's pick for a task.
// POST /v1/delegations/suggest
func (h *Handler) SuggestTarget(c echo.Context) error {
	var req domain.SuggestTargetRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	resp, err := h.service.SuggestTarget(req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// GetDelegation handles getting a delegation.
// GET /v1/delegations/:delegation_id
func (h *Handler) GetDelegation(c echo.Context) error {
	ctx := c.Request().Context()

	d, err := h.service.GetDelegation(ctx, c.Param("delegation_id"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, d)
}

// ClaimDelegation moves a pending delegation to running.
// POST /v1/delegations/:delegation_id/claim
func (h *Handler) ClaimDelegation(c echo.Context) error {
	return h.transition(c, h.service.ClaimDelegation)
}

// CompleteDelegation records a delegation's result.
// POST /v1/delegations/:delegation_id/complete
func (h *Handler) CompleteDelegation(c echo.Context) error {
	return h.transition(c, h.service.CompleteDelegation)
}

// FailDelegation records a delegation's failure.
// POST /v1/delegations/:delegation_id/fail
func (h *Handler) FailDelegation(c echo.Context) error {
	return h.transition(c, h.service.FailDelegation)
}

type transitionFunc func(ctx context.Context, delegationID string, req domain.DelegationActionRequest) (*domain.Delegation, error)

func (h *Handler) transition(c echo.Context, fn transitionFunc) error {
	ctx := c.Request().Context()

	var req domain.DelegationActionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	d, err := fn(ctx, c.Param("delegation_id"), req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, d)
}

// ListDelegations lists a session's delegations, newest first.
// GET /v1/sessions/:session_id/delegations
func (h *Handler) ListDelegations(c echo.Context) error {
	ctx := c.Request().Context()

	limit, ok := queryLimit(c)
	if !ok {
		return badRequest(c, "invalid limit")
	}

	list, err := h.service.ListDelegations(ctx, c.Param("session_id"), limit)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"delegations": list,
	})
}

// ListPendingForAgent lists delegations waiting for an agent, oldest first.
// GET /v1/agents/:agent/delegations/pending
func (h *Handler) ListPendingForAgent(c echo.Context) error {
	ctx := c.Request().Context()

	list, err := h.service.ListPendingForAgent(ctx, c.Param("agent"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"delegations": list,
	})
}
