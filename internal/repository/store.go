// Package repository persists sessions, delegations, audit entries,
// escalations and activity events.
package repository

import (
	"context"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"
)

// SessionFilter narrows ListSessions. Empty fields match everything.
type SessionFilter struct {
	Owner  string
	Status domain.SessionStatus
	Limit  int
}

// PermissionLogFilter narrows ListPermissionLogs.
type PermissionLogFilter struct {
	CallerAgent string
	SessionID   string
	DeniedOnly  bool
	Limit       int
}

// EventFilter narrows ListEvents.
type EventFilter struct {
	SessionID string
	AfterTs   int64
	Types     []domain.EventType
	Limit     int
}

// Store defines the interface for data persistence.
// Get methods return (nil, nil) when the record does not exist. Conditional
// state transitions return false when the row was not in an eligible state.
type Store interface {
	// Session operations
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]domain.Session, error)
	CloseSession(ctx context.Context, sessionID string, closedAt int64) (bool, error)
	IncrementMessageCount(ctx context.Context, sessionID string) (int, bool, error)

	// Message operations
	CreateMessage(ctx context.Context, message *domain.Message) error
	ListMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)
	RecentMessages(ctx context.Context, sessionID string, n int) ([]domain.Message, error)

	// Delegation operations
	CreateDelegation(ctx context.Context, d *domain.Delegation) error
	GetDelegation(ctx context.Context, delegationID string) (*domain.Delegation, error)
	ListDelegationsBySession(ctx context.Context, sessionID string, limit int) ([]domain.Delegation, error)
	ListPendingForAgent(ctx context.Context, agent string) ([]domain.Delegation, error)
	ListOpenDelegations(ctx context.Context, sessionID string) ([]domain.Delegation, error)
	ClaimDelegation(ctx context.Context, delegationID string, claimedAt int64) (bool, error)
	CompleteDelegation(ctx context.Context, delegationID, result string, completedAt int64) (bool, error)
	FailDelegation(ctx context.Context, delegationID, errMsg string, completedAt int64) (bool, error)

	// Permission audit operations
	CreatePermissionLog(ctx context.Context, entry *domain.PermissionLogEntry) error
	ListPermissionLogs(ctx context.Context, filter PermissionLogFilter) ([]domain.PermissionLogEntry, error)

	// Escalation operations
	CreateEscalation(ctx context.Context, esc *domain.Escalation) error
	GetEscalation(ctx context.Context, escalationID string) (*domain.Escalation, error)
	ListEscalations(ctx context.Context, status domain.EscalationStatus, limit int) ([]domain.Escalation, error)
	ResolveEscalation(ctx context.Context, escalationID string, status domain.EscalationStatus, resolvedBy, resolution string, resolvedAt int64) (bool, error)
	MarkEscalationNotified(ctx context.Context, escalationID string) error

	// Event operations
	CreateEvent(ctx context.Context, event *domain.Event) error
	ListEvents(ctx context.Context, filter EventFilter) ([]domain.Event, error)

	Close() error
}
