package escalation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"
)

func TestCheckTriggersPriority(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    domain.EscalationTrigger
	}{
		{"user request", "we need to escalate this to anton", domain.TriggerUserRequested},
		{"user request beats security", "escalate: someone leaked the password", domain.TriggerUserRequested},
		{"security", "rotate the api key for the mailer", domain.TriggerSecuritySensitive},
		{"security beats infrastructure", "deploy the new password policy", domain.TriggerSecuritySensitive},
		{"infrastructure", "deploy the dashboard to production", domain.TriggerInfrastructureChange},
		{"financial over threshold", "please approve the payment of $60", domain.TriggerFinancialThreshold},
		{"financial with thousands", "renew the subscription for $1,200.00", domain.TriggerFinancialThreshold},
		{"cross agent", "reconfigure ralph so he stops asking", domain.TriggerCrossAgentModification},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckTriggers(tt.message, domain.SessionModeOperator)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Trigger)
			assert.Equal(t, Severity(tt.want), got.Severity)
		})
	}
}

func TestCheckTriggersNoEscalation(t *testing.T) {
	for _, msg := range []string{
		"",
		"what's on the board today?",
		"please approve the payment of $40",
		"please approve the payment of $50",
		"the invoice looks fine",
		"I paid $500 for lunch yesterday",
	} {
		assert.Nil(t, CheckTriggers(msg, domain.SessionModeOperator), msg)
	}
}

func TestFinancialThreshold(t *testing.T) {
	below := CheckTriggers("please approve the payment of $40", domain.SessionModeOperator)
	assert.Nil(t, below)

	above := CheckTriggers("please approve the payment of $60", domain.SessionModeOperator)
	require.NotNil(t, above)
	assert.Equal(t, domain.TriggerFinancialThreshold, above.Trigger)
	assert.Equal(t, domain.SeverityHigh, above.Severity)
}

func TestAdvisorModeNeverEscalates(t *testing.T) {
	for _, msg := range []string{
		"we need to escalate this to anton",
		"rotate the api key for the mailer",
		"deploy the dashboard to production",
		"please approve the payment of $60",
		"reconfigure ralph so he stops asking",
	} {
		require.NotNil(t, CheckTriggers(msg, domain.SessionModeOperator), msg)
		assert.Nil(t, CheckTriggers(msg, domain.SessionModeAdvisor), msg)
	}
}

func TestUserRequestedIsMedium(t *testing.T) {
	got := CheckTriggers("we need to escalate this to anton", domain.SessionModeOperator)
	require.NotNil(t, got)
	assert.Equal(t, domain.TriggerUserRequested, got.Trigger)
	assert.Equal(t, domain.SeverityMedium, got.Severity)
}

func TestSeverityTableIsTotal(t *testing.T) {
	for _, tr := range []domain.EscalationTrigger{
		domain.TriggerUserRequested, domain.TriggerSecuritySensitive,
		domain.TriggerInfrastructureChange, domain.TriggerFinancialThreshold,
		domain.TriggerCrossAgentModification,
	} {
		_, ok := severities[tr]
		assert.True(t, ok, tr)
	}
	assert.Equal(t, domain.SeverityCritical, Severity(domain.TriggerSecuritySensitive))
	assert.Equal(t, domain.SeverityMedium, Severity("something_else"))
}

func TestMaxDollarAmount(t *testing.T) {
	assert.Equal(t, 0.0, MaxDollarAmount("no money here"))
	assert.Equal(t, 60.0, MaxDollarAmount("$60"))
	assert.Equal(t, 1200.5, MaxDollarAmount("between $10 and $1,200.50"))
	assert.Equal(t, 75.0, MaxDollarAmount("$ 75 total"))
}

func TestBuildHandoffPacketTrimsHistory(t *testing.T) {
	var history []domain.ConversationTurn
	for i := 0; i < 14; i++ {
		history = append(history, domain.ConversationTurn{Role: "user", Content: fmt.Sprintf("turn %d", i)})
	}
	now := time.UnixMilli(1_700_000_000_000)

	p := BuildHandoffPacket(PacketInput{
		ConversationID: "s1",
		FromAgent:      "kimi",
		ToAgent:        "anton",
		Trigger:        domain.TriggerFinancialThreshold,
		Summary:        "payment over threshold",
		History:        history,
	}, now)

	assert.NotEmpty(t, p.EscalationID)
	assert.Equal(t, now.UnixMilli(), p.Timestamp)
	assert.Equal(t, domain.SeverityHigh, p.Severity)
	assert.Equal(t, domain.EscalationStatusPending, p.Status)
	assert.Equal(t, HistoryLimit, p.Context.MessageCount)
	require.Len(t, p.Context.Messages, HistoryLimit)
	assert.Equal(t, "turn 4", p.Context.Messages[0].Content)
	assert.Equal(t, "turn 13", p.Context.Messages[9].Content)
	assert.Empty(t, p.AttemptedActions)
	assert.NotNil(t, p.NextSteps)
	assert.NotNil(t, p.MemorySnapshot.ActiveTasks)
}

func TestBuildHandoffPacketShortHistory(t *testing.T) {
	history := []domain.ConversationTurn{{Role: "user", Content: "only one"}}
	a := BuildHandoffPacket(PacketInput{Trigger: domain.TriggerUserRequested, History: history}, time.Now())
	b := BuildHandoffPacket(PacketInput{Trigger: domain.TriggerUserRequested, History: history}, time.Now())

	assert.Equal(t, 1, a.Context.MessageCount)
	assert.NotEqual(t, a.EscalationID, b.EscalationID)

	history[0].Content = "mutated"
	assert.Equal(t, "only one", a.Context.Messages[0].Content)
}
