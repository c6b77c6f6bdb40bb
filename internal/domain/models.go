package domain

import "encoding/json"

// Timestamps are unix milliseconds throughout, matching the dashboard clients.

// Delegation represents one unit of handed-off work.
type Delegation struct {
	DelegationID       string           `json:"delegationId"`
	SessionID          string           `json:"sessionId"`
	CallerAgent        string           `json:"callerAgent"`
	TargetAgent        string           `json:"targetAgent"`
	TaskDescription    string           `json:"taskDescription"`
	ModelOverride      string           `json:"modelOverride"`
	ModelOverrideScope string           `json:"modelOverrideScope"`
	Context            string           `json:"context,omitempty"`
	Status             DelegationStatus `json:"status"`
	Result             string           `json:"result,omitempty"`
	Error              string           `json:"error,omitempty"`
	CreatedAt          int64            `json:"createdAt"`
	ClaimedAt          int64            `json:"claimedAt,omitempty"`
	CompletedAt        int64            `json:"completedAt,omitempty"`
}

// Session represents one conversational context of a top-level agent.
type Session struct {
	SessionID    string          `json:"sessionId"`
	Owner        string          `json:"owner"`
	Mode         SessionMode     `json:"mode"`
	MessageCount int             `json:"messageCount"`
	Status       SessionStatus   `json:"status"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    int64           `json:"createdAt"`
	ClosedAt     int64           `json:"closedAt,omitempty"`
}

// Message represents a chat turn inside a session.
type Message struct {
	MessageID string      `json:"messageId"`
	SessionID string      `json:"sessionId"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt int64       `json:"createdAt"`
}

// ConversationTurn is a message as carried inside a handoff packet.
type ConversationTurn struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// EscalationContext is the conversation excerpt attached to an escalation.
type EscalationContext struct {
	ConversationID string             `json:"conversationId"`
	MessageCount   int                `json:"messageCount"`
	Messages       []ConversationTurn `json:"messages"`
}

// MemorySnapshot captures what the escalating agent was working on.
type MemorySnapshot struct {
	ActiveTasks     []string `json:"activeTasks"`
	RecentDecisions []string `json:"recentDecisions"`
}

// Escalation is the handoff packet produced when a conversation trips a trigger.
type Escalation struct {
	EscalationID       string            `json:"escalationId"`
	Timestamp          int64             `json:"timestamp"`
	FromAgent          string            `json:"fromAgent"`
	ToAgent            string            `json:"toAgent"`
	Trigger            EscalationTrigger `json:"trigger"`
	Severity           Severity          `json:"severity"`
	Summary            string            `json:"summary"`
	UserNotes          string            `json:"userNotes,omitempty"`
	Context            EscalationContext `json:"context"`
	AttemptedActions   []string          `json:"attemptedActions"`
	RecommendedActions []string          `json:"recommendedActions"`
	BlockedActions     []string          `json:"blockedActions"`
	RiskNotes          []string          `json:"riskNotes"`
	NextSteps          []string          `json:"nextSteps"`
	MemorySnapshot     MemorySnapshot    `json:"memorySnapshot"`
	Status             EscalationStatus  `json:"status"`
	Notified           bool              `json:"notified"`
	Resolution         string            `json:"resolution,omitempty"`
	ResolvedBy         string            `json:"resolvedBy,omitempty"`
	ResolvedAt         int64             `json:"resolvedAt,omitempty"`
}

// PermissionLogEntry is an append-only audit record of a permission decision.
type PermissionLogEntry struct {
	LogID       string `json:"logId"`
	CallerAgent string `json:"callerAgent"`
	Action      string `json:"action"`
	Resource    string `json:"resource"`
	Allowed     bool   `json:"allowed"`
	Reason      string `json:"reason"`
	SessionID   string `json:"sessionId,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// Event is an activity feed record.
type Event struct {
	EventID     string          `json:"eventId"`
	AggregateID string          `json:"aggregateId"`
	SessionID   string          `json:"sessionId,omitempty"`
	Ts          int64           `json:"ts"`
	Type        EventType       `json:"type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}
