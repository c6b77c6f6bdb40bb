package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"
)

// CreateSession handles session creation.
// POST /v1/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	session, err := h.service.CreateSession(ctx, req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, session)
}

// GetSession handles getting a session.
// GET /v1/sessions/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	ctx := c.Request().Context()

	session, err := h.service.GetSession(ctx, c.Param("session_id"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, session)
}

// ListSessions lists sessions, optionally filtered by owner and status.
// GET /v1/sessions?owner=&status=&limit=
func (h *Handler) ListSessions(c echo.Context) error {
	ctx := c.Request().Context()

	limit, ok := queryLimit(c)
	if !ok {
		return badRequest(c, "invalid limit")
	}

	list, err := h.service.ListSessions(ctx, c.QueryParam("owner"), domain.SessionStatus(c.QueryParam("status")), limit)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions": list,
	})
}

// CloseSession closes a session.
// POST /v1/sessions/:session_id/close
func (h *Handler) CloseSession(c echo.Context) error {
	ctx := c.Request().Context()

	session, err := h.service.CloseSession(ctx, c.Param("session_id"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, session)
}

// PostMessage records a chat turn.
// POST /v1/sessions/:session_id/messages
func (h *Handler) PostMessage(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.PostMessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	resp, err := h.service.PostMessage(ctx, c.Param("session_id"), req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, resp)
}

// ListMessages lists a session's turns.
// GET /v1/sessions/:session_id/messages
func (h *Handler) ListMessages(c echo.Context) error {
	ctx := c.Request().Context()

	limit, ok := queryLimit(c)
	if !ok {
		return badRequest(c, "invalid limit")
	}

	msgs, err := h.service.ListMessages(ctx, c.Param("session_id"), limit)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": msgs,
	})
}
