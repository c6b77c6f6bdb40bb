package escalation

import (
	"time"

	"github.com/google/uuid"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"
)

// HistoryLimit is how many trailing turns a handoff packet carries.
const HistoryLimit = 10

// PacketInput holds what is known about the conversation at escalation time.
type PacketInput struct {
	ConversationID string
	FromAgent      string
	ToAgent        string
	Trigger        domain.EscalationTrigger
	Summary        string
	UserNotes      string
	History        []domain.ConversationTurn
	Memory         domain.MemorySnapshot
}

// BuildHandoffPacket creates a pending escalation template. Action, risk and
// next-step lists start empty; the caller fills them before persisting.
func BuildHandoffPacket(in PacketInput, now time.Time) *domain.Escalation {
	history := in.History
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}
	msgs := make([]domain.ConversationTurn, len(history))
	copy(msgs, history)

	memory := in.Memory
	if memory.ActiveTasks == nil {
		memory.ActiveTasks = []string{}
	}
	if memory.RecentDecisions == nil {
		memory.RecentDecisions = []string{}
	}

	return &domain.Escalation{
		EscalationID: "esc_" + uuid.New().String(),
		Timestamp:    now.UnixMilli(),
		FromAgent:    in.FromAgent,
		ToAgent:      in.ToAgent,
		Trigger:      in.Trigger,
		Severity:     Severity(in.Trigger),
		Summary:      in.Summary,
		UserNotes:    in.UserNotes,
		Context: domain.EscalationContext{
			ConversationID: in.ConversationID,
			MessageCount:   len(msgs),
			Messages:       msgs,
		},
		AttemptedActions:   []string{},
		RecommendedActions: []string{},
		BlockedActions:     []string{},
		RiskNotes:          []string{},
		NextSteps:          []string{},
		MemorySnapshot:     memory,
		Status:             domain.EscalationStatusPending,
	}
}
