package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(context.Background(), DefaultPolicy)
	require.NoError(t, err)
	return e
}

func TestDefaultPolicyAllowsOperatorSessions(t *testing.T) {
	e := newDefaultEngine(t)
	res, err := e.Evaluate(context.Background(), Input{
		CallerAgent:   "kimi",
		TargetAgent:   "ralph",
		SessionMode:   "operator",
		SessionStatus: "active",
	})
	require.NoError(t, err)
	assert.False(t, res.Blocked())
	assert.Equal(t, DecisionAllow, res.Decision)
}

func TestDefaultPolicyAllowsUnknownSession(t *testing.T) {
	e := newDefaultEngine(t)
	res, err := e.Evaluate(context.Background(), Input{CallerAgent: "kimi", TargetAgent: "ralph"})
	require.NoError(t, err)
	assert.False(t, res.Blocked())
}

func TestDefaultPolicyBlocksAdvisorSessions(t *testing.T) {
	e := newDefaultEngine(t)
	res, err := e.Evaluate(context.Background(), Input{
		CallerAgent:   "kimi",
		TargetAgent:   "ralph",
		SessionMode:   "advisor",
		SessionStatus: "active",
	})
	require.NoError(t, err)
	assert.True(t, res.Blocked())
	assert.Contains(t, res.Reason, "read-only")
}

func TestDefaultPolicyBlocksClosedSessions(t *testing.T) {
	e := newDefaultEngine(t)
	for _, mode := range []string{"operator", "advisor"} {
		res, err := e.Evaluate(context.Background(), Input{SessionMode: mode, SessionStatus: "closed"})
		require.NoError(t, err)
		assert.True(t, res.Blocked(), mode)
		assert.Equal(t, "session is closed", res.Reason)
	}
}

func TestCustomPolicyFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.rego")
	custom := `
package delegation_policy

default decision = "allow"

decision = "block" {
	input.target_agent == "scout"
}

reason = "scout is on leave" {
	input.target_agent == "scout"
}
`
	require.NoError(t, os.WriteFile(path, []byte(custom), 0o644))

	e, err := NewEngineFromFile(context.Background(), path)
	require.NoError(t, err)

	res, err := e.Evaluate(context.Background(), Input{TargetAgent: "scout"})
	require.NoError(t, err)
	assert.True(t, res.Blocked())
	assert.Equal(t, "scout is on leave", res.Reason)

	res, err = e.Evaluate(context.Background(), Input{TargetAgent: "ralph"})
	require.NoError(t, err)
	assert.False(t, res.Blocked())
}

func TestNewEngineRejectsBadPolicy(t *testing.T) {
	_, err := NewEngine(context.Background(), "package delegation_policy\n\ndecision = {")
	assert.Error(t, err)
}

func TestNewEngineFromMissingFile(t *testing.T) {
	_, err := NewEngineFromFile(context.Background(), filepath.Join(t.TempDir(), "missing.rego"))
	assert.Error(t, err)
}

func TestEvaluateRejectsUnknownDecision(t *testing.T) {
	e, err := NewEngine(context.Background(), "package delegation_policy\n\ndecision = \"maybe\"\n")
	require.NoError(t, err)
	_, err = e.Evaluate(context.Background(), Input{})
	assert.Error(t, err)
}
