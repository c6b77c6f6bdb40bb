// Package domain defines the core domain models for mission control.
package domain

// DelegationStatus represents the status of a delegation.
type DelegationStatus string

const (
	DelegationStatusPending    DelegationStatus = "pending"
	DelegationStatusInProgress DelegationStatus = "in_progress"
	DelegationStatusCompleted  DelegationStatus = "completed"
	DelegationStatusFailed     DelegationStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s DelegationStatus) Terminal() bool {
	return s == DelegationStatusCompleted || s == DelegationStatusFailed
}

// OverrideScopeTask is the only model override scope a delegation can carry.
const OverrideScopeTask = "task"

// SessionStatus represents the status of a session.
type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusClosed SessionStatus = "closed"
)

// SessionMode represents how the owning agent may act within a session.
type SessionMode string

const (
	SessionModeOperator SessionMode = "operator"
	// SessionModeAdvisor is read-only: no escalations or delegations.
	SessionModeAdvisor SessionMode = "advisor"
)

// Valid reports whether m is a known mode.
func (m SessionMode) Valid() bool {
	return m == SessionModeOperator || m == SessionModeAdvisor
}

// MessageRole represents the author of a chat turn.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// Valid reports whether r is a known role.
func (r MessageRole) Valid() bool {
	switch r {
	case MessageRoleUser, MessageRoleAssistant, MessageRoleSystem:
		return true
	}
	return false
}

// EscalationTrigger identifies why a conversation was escalated.
type EscalationTrigger string

const (
	TriggerUserRequested          EscalationTrigger = "user_requested"
	TriggerSecuritySensitive      EscalationTrigger = "security_sensitive"
	TriggerInfrastructureChange   EscalationTrigger = "infrastructure_change"
	TriggerFinancialThreshold     EscalationTrigger = "financial_threshold"
	TriggerCrossAgentModification EscalationTrigger = "cross_agent_modification"
)

// Valid reports whether t is one of the fixed triggers.
func (t EscalationTrigger) Valid() bool {
	switch t {
	case TriggerUserRequested, TriggerSecuritySensitive, TriggerInfrastructureChange,
		TriggerFinancialThreshold, TriggerCrossAgentModification:
		return true
	}
	return false
}

// Severity is derived from an EscalationTrigger, never set directly.
type Severity string

const (
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// EscalationStatus represents the status of an escalation.
type EscalationStatus string

const (
	EscalationStatusPending   EscalationStatus = "pending"
	EscalationStatusResolved  EscalationStatus = "resolved"
	EscalationStatusDismissed EscalationStatus = "dismissed"
)

// EventType represents the type of an activity event.
type EventType string

const (
	EventTypeSessionCreated      EventType = "session_created"
	EventTypeSessionClosed       EventType = "session_closed"
	EventTypeMessageReceived     EventType = "message_received"
	EventTypeDelegationCreated   EventType = "delegation_created"
	EventTypeDelegationDenied    EventType = "delegation_denied"
	EventTypeDelegationClaimed   EventType = "delegation_claimed"
	EventTypeDelegationCompleted EventType = "delegation_completed"
	EventTypeDelegationFailed    EventType = "delegation_failed"
	EventTypeEscalationCreated   EventType = "escalation_created"
	EventTypeEscalationResolved  EventType = "escalation_resolved"
)
