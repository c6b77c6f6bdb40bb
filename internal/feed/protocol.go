package feed

import "github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"

// Frame types from client to server.
const (
	TypeSubscribe = "subscribe"
)

// Frame types from server to client.
const (
	TypeSubscribed = "subscribed"
	TypeEvent      = "event"
	TypeError      = "error"
)

// BaseFrame contains common fields for all frames.
type BaseFrame struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	SessionID string `json:"sessionId,omitempty"`
}

// SubscribeFrame rebinds a connection to one session. An empty session
// subscribes to every session.
type SubscribeFrame struct {
	BaseFrame
}

// EventFrame carries one activity event.
type EventFrame struct {
	BaseFrame
	Event *domain.Event `json:"event"`
}

// ErrorFrame is sent when a client frame cannot be handled.
type ErrorFrame struct {
	BaseFrame
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrorCodeInvalidFrame = "invalid_frame"
)
