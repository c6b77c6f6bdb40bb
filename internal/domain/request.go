package domain

import "encoding/json"

// CreateDelegationRequest represents the request to hand off a task.
type CreateDelegationRequest struct {
	SessionID       string `json:"sessionId"`
	CallerAgent     string `json:"callerAgent"`
	TargetAgent     string `json:"targetAgent,omitempty"`
	TaskDescription string `json:"taskDescription"`
	Context         string `json:"context,omitempty"`
	// Accepted for wire compatibility; the server always uses its own
	// model override and the "task" scope.
	ModelOverride      string `json:"modelOverride,omitempty"`
	ModelOverrideScope string `json:"modelOverrideScope,omitempty"`
}

// CreateDelegationResponse represents the response after creating a delegation.
type CreateDelegationResponse struct {
	DelegationID       string `json:"delegationId"`
	TargetAgent        string `json:"targetAgent"`
	ModelOverride      string `json:"modelOverride"`
	ModelOverrideScope string `json:"modelOverrideScope"`
}

// DelegationActionRequest is the body of claim, complete and fail calls.
type DelegationActionRequest struct {
	Agent  string `json:"agent,omitempty"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// SuggestTargetRequest asks the routing heuristic for a target.
type SuggestTargetRequest struct {
	TaskDescription string `json:"taskDescription"`
}

// SuggestTargetResponse carries the suggested target, empty when none matched.
type SuggestTargetResponse struct {
	TargetAgent string `json:"targetAgent,omitempty"`
	Matched     bool   `json:"matched"`
}

// CheckPermissionRequest asks for a permission decision.
type CheckPermissionRequest struct {
	CallerAgent string `json:"callerAgent"`
	Action      string `json:"action"`
	Resource    string `json:"resource,omitempty"`
	SessionID   string `json:"sessionId,omitempty"`
}

// PermissionDecision is the outcome of a permission check.
type PermissionDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// LogPermissionRequest appends an externally made decision to the audit log.
type LogPermissionRequest struct {
	CallerAgent string `json:"callerAgent"`
	Action      string `json:"action"`
	Resource    string `json:"resource"`
	Allowed     bool   `json:"allowed"`
	Reason      string `json:"reason"`
	SessionID   string `json:"sessionId,omitempty"`
}

// CreateSessionRequest represents the request to open a session.
type CreateSessionRequest struct {
	Owner       string          `json:"owner"`
	Mode        SessionMode     `json:"mode"`
	CallerAgent string          `json:"callerAgent,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// PostMessageRequest records a chat turn.
type PostMessageRequest struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// PostMessageResponse reports the stored turn and any escalation it raised.
type PostMessageResponse struct {
	MessageID    string            `json:"messageId"`
	MessageCount int               `json:"messageCount"`
	Escalated    bool              `json:"escalated"`
	EscalationID string            `json:"escalationId,omitempty"`
	Trigger      EscalationTrigger `json:"trigger,omitempty"`
	Severity     Severity          `json:"severity,omitempty"`
}

// CreateEscalationRequest represents an explicit escalation.
type CreateEscalationRequest struct {
	ConversationID      string             `json:"conversationId"`
	Trigger             EscalationTrigger  `json:"trigger"`
	Summary             string             `json:"summary"`
	UserNotes           string             `json:"userNotes,omitempty"`
	ConversationHistory []ConversationTurn `json:"conversationHistory,omitempty"`
}

// CreateEscalationResponse represents the response after creating an escalation.
type CreateEscalationResponse struct {
	EscalationID string           `json:"escalationId"`
	Status       EscalationStatus `json:"status"`
	Notified     bool             `json:"notified"`
}

// CheckEscalationRequest runs the classifier without side effects.
type CheckEscalationRequest struct {
	Message string      `json:"message"`
	Mode    SessionMode `json:"mode"`
}

// CheckEscalationResponse is the classifier outcome.
type CheckEscalationResponse struct {
	Escalate bool              `json:"escalate"`
	Trigger  EscalationTrigger `json:"trigger,omitempty"`
	Severity Severity          `json:"severity,omitempty"`
}

// ResolveEscalationRequest closes out a pending escalation.
type ResolveEscalationRequest struct {
	ResolvedBy string           `json:"resolvedBy"`
	Resolution string           `json:"resolution"`
	Status     EscalationStatus `json:"status"`
}
