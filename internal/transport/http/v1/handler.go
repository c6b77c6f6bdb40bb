// Package v1 provides the public JSON API.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/feed"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	feed    *feed.Server
}

// NewHandler creates a new handler. feedServer may be nil, in which case the
// websocket route is not registered.
func NewHandler(service *service.Service, feedServer *feed.Server) *Handler {
	return &Handler{
		service: service,
		feed:    feedServer,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Delegations
	e.POST("/v1/delegations", h.CreateDelegation)
	e.POST("/v1/delegations/suggest", h.SuggestTarget)
	e.GET("/v1/delegations/:delegation_id", h.GetDelegation)
	e.POST("/v1/delegations/:delegation_id/claim", h.ClaimDelegation)
	e.POST("/v1/delegations/:delegation_id/complete", h.CompleteDelegation)
	e.POST("/v1/delegations/:delegation_id/fail", h.FailDelegation)
	e.GET("/v1/sessions/:session_id/delegations", h.ListDelegations)

	// Hierarchy
	e.GET("/v1/agents", h.ListAgents)
	e.GET("/v1/agents/:agent/delegations/pending", h.ListPendingForAgent)

	// Permission audit
	e.POST("/v1/permissions/check", h.CheckPermission)
	e.POST("/v1/permissions/log", h.LogPermission)
	e.GET("/v1/permissions/denied", h.ListDenied)
	e.GET("/v1/permissions/recent", h.ListRecent)
	e.GET("/v1/permissions/agents/:agent", h.ListByAgent)

	// Escalations
	e.POST("/v1/escalations", h.CreateEscalation)
	e.POST("/v1/escalations/check", h.CheckEscalation)
	e.GET("/v1/escalations/pending", h.ListPendingEscalations)
	e.GET("/v1/escalations/:escalation_id", h.GetEscalation)
	e.POST("/v1/escalations/:escalation_id/resolve", h.ResolveEscalation)

	// Sessions
	e.POST("/v1/sessions", h.CreateSession)
	e.GET("/v1/sessions", h.ListSessions)
	e.GET("/v1/sessions/:session_id", h.GetSession)
	e.POST("/v1/sessions/:session_id/close", h.CloseSession)
	e.POST("/v1/sessions/:session_id/messages", h.PostMessage)
	e.GET("/v1/sessions/:session_id/messages", h.ListMessages)

	// Activity
	e.GET("/v1/activity", h.ListActivity)
	if h.feed != nil {
		e.GET("/v1/feed", h.feed.HandleWebSocket)
	}

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
