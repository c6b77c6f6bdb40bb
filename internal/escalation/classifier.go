// Package escalation decides when a conversation must be handed up the chain
// of command and builds the handoff packet that travels with it.
package escalation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"
)

// FinancialThreshold is the dollar amount a financial message must exceed.
const FinancialThreshold = 50.0

var (
	userRequestPhrases = []string{
		"escalate", "talk to anton", "ask anton", "check with anton",
		"let anton decide", "get anton", "need a human", "superior review",
		"review by a superior", "bring in a supervisor", "loop in anton",
	}
	securityKeywords = []string{
		"password", "credential", "api key", "secret", "private key",
		"ssh key", "access token", "vulnerability", "breach", "2fa",
		"mfa", "encryption key", "security",
	}
	infrastructureKeywords = []string{
		"deploy", "production", "migration", "dns", "server", "kubernetes",
		"terraform", "infrastructure", "rollback", "drop table",
		"delete the database", "firewall",
	}
	financialKeywords = []string{
		"payment", "pay ", "invoice", "purchase", "buy", "subscription",
		"transfer", "refund", "spend", "budget", "charge", "paypal",
		"plaid", "wire", "cost",
	}
	crossAgentKeywords = []string{
		"modify ralph", "change ralph", "update ralph", "modify scout",
		"change scout", "update scout", "reconfigure", "other agent",
		"agent config", "agent's prompt", "override model",
		"change the model", "permanent override",
	}
)

// dollarAmount matches "$60", "$ 1,200.50" and similar.
var dollarAmount = regexp.MustCompile(`\$\s?(\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?`)

// severities is total over the fixed trigger set.
var severities = map[domain.EscalationTrigger]domain.Severity{
	domain.TriggerUserRequested:          domain.SeverityMedium,
	domain.TriggerSecuritySensitive:      domain.SeverityCritical,
	domain.TriggerInfrastructureChange:   domain.SeverityHigh,
	domain.TriggerFinancialThreshold:     domain.SeverityHigh,
	domain.TriggerCrossAgentModification: domain.SeverityHigh,
}

// Severity maps a trigger to its severity; unknown triggers are medium.
func Severity(trigger domain.EscalationTrigger) domain.Severity {
	if s, ok := severities[trigger]; ok {
		return s
	}
	return domain.SeverityMedium
}

// Result is a fired trigger together with its derived severity.
type Result struct {
	Trigger  domain.EscalationTrigger
	Severity domain.Severity
}

// CheckTriggers classifies a message. It returns nil when nothing fires.
// Rules are evaluated in priority order and the first match wins; advisor
// mode never escalates.
func CheckTriggers(message string, mode domain.SessionMode) *Result {
	if mode == domain.SessionModeAdvisor {
		return nil
	}
	lower := strings.ToLower(message)

	var trigger domain.EscalationTrigger
	switch {
	case containsAny(lower, userRequestPhrases):
		trigger = domain.TriggerUserRequested
	case containsAny(lower, securityKeywords):
		trigger = domain.TriggerSecuritySensitive
	case containsAny(lower, infrastructureKeywords):
		trigger = domain.TriggerInfrastructureChange
	case containsAny(lower, financialKeywords) && MaxDollarAmount(message) > FinancialThreshold:
		trigger = domain.TriggerFinancialThreshold
	case containsAny(lower, crossAgentKeywords):
		trigger = domain.TriggerCrossAgentModification
	default:
		return nil
	}
	return &Result{Trigger: trigger, Severity: Severity(trigger)}
}

// MaxDollarAmount returns the largest dollar amount in text, or 0.
func MaxDollarAmount(text string) float64 {
	max := 0.0
	for _, m := range dollarAmount.FindAllString(text, -1) {
		raw := strings.NewReplacer("$", "", ",", "", " ", "").Replace(m)
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if v > max {
			max = v
		}
	}
	return max
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
