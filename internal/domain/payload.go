package domain

// Payloads recorded with activity events.

// DelegationEventPayload is the payload for delegation lifecycle events.
type DelegationEventPayload struct {
	DelegationID string           `json:"delegationId,omitempty"`
	CallerAgent  string           `json:"callerAgent"`
	TargetAgent  string           `json:"targetAgent,omitempty"`
	Status       DelegationStatus `json:"status,omitempty"`
	Reason       string           `json:"reason,omitempty"`
}

// SessionEventPayload is the payload for session events.
type SessionEventPayload struct {
	Owner        string        `json:"owner"`
	Mode         SessionMode   `json:"mode"`
	Status       SessionStatus `json:"status"`
	MessageCount int           `json:"messageCount"`
}

// MessageEventPayload is the payload for message_received.
type MessageEventPayload struct {
	MessageID string      `json:"messageId"`
	Role      MessageRole `json:"role"`
}

// EscalationEventPayload is the payload for escalation events.
type EscalationEventPayload struct {
	EscalationID string            `json:"escalationId"`
	FromAgent    string            `json:"fromAgent"`
	ToAgent      string            `json:"toAgent"`
	Trigger      EscalationTrigger `json:"trigger"`
	Severity     Severity          `json:"severity"`
	Status       EscalationStatus  `json:"status"`
	ResolvedBy   string            `json:"resolvedBy,omitempty"`
}
