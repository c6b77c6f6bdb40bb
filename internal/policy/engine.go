// Package policy evaluates the delegation guardrail policy with OPA.
//
// The hierarchy decides who may delegate to whom; the guardrail decides
// whether a delegation that the hierarchy allows should still be blocked
// given the state of the session it originates from.
package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"
)

// Decisions returned by the policy.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Input is the document the policy is evaluated against.
type Input struct {
	CallerAgent     string  `json:"caller_agent"`
	TargetAgent     string  `json:"target_agent"`
	CallerRank      float64 `json:"caller_rank"`
	TargetRank      float64 `json:"target_rank"`
	SessionMode     string  `json:"session_mode"`
	SessionStatus   string  `json:"session_status"`
	TaskDescription string  `json:"task_description"`
}

// Result is the evaluated decision.
type Result struct {
	Decision string
	Reason   string
}

// Blocked reports whether the policy blocked the delegation.
func (r Result) Blocked() bool {
	return r.Decision == DecisionBlock
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.delegation_policy"),
		rego.Module("delegation_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// NewEngineFromFile loads the policy module from path, falling back to
// DefaultPolicy when path is empty.
func NewEngineFromFile(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		return NewEngine(ctx, DefaultPolicy)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return NewEngine(ctx, string(content))
}

// Evaluate checks the delegation policy. A policy that defines no decision
// allows the delegation.
func (e *Engine) Evaluate(ctx context.Context, input Input) (Result, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Result{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Result{Decision: DecisionAllow, Reason: "no policy decision"}, nil
	}

	doc, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Result{Decision: DecisionAllow, Reason: "unexpected policy document"}, nil
	}

	res := Result{Decision: DecisionAllow}
	if d, ok := doc["decision"].(string); ok {
		res.Decision = d
	}
	if r, ok := doc["reason"].(string); ok {
		res.Reason = r
	}
	if res.Decision != DecisionAllow && res.Decision != DecisionBlock {
		return Result{}, fmt.Errorf("policy returned unknown decision %q", res.Decision)
	}
	return res, nil
}

// DefaultPolicy is the default policy content.
const DefaultPolicy = `
package delegation_policy

default decision = "allow"

decision = "block" {
	input.session_status == "closed"
}

decision = "block" {
	input.session_mode == "advisor"
}

reason = "session is closed" {
	input.session_status == "closed"
}

reason = "advisor sessions are read-only and cannot delegate" {
	input.session_mode == "advisor"
	input.session_status != "closed"
}
`
