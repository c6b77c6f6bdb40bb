package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/hierarchy"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/policy"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/routing"
)

// actionDelegate is the audit action for the caller->target delegation check.
const actionDelegate = "delegate"

// CreateDelegation validates and persists a pending delegation. Nothing is
// stored unless every check passes.
func (s *Service) CreateDelegation(ctx context.Context, req domain.CreateDelegationRequest) (*domain.CreateDelegationResponse, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	caller := strings.TrimSpace(req.CallerAgent)
	task := strings.TrimSpace(req.TaskDescription)
	if sessionID == "" {
		return nil, invalid("sessionId is required")
	}
	if caller == "" {
		return nil, invalid("callerAgent is required")
	}
	if task == "" {
		return nil, invalid("taskDescription is required")
	}

	target := strings.TrimSpace(req.TargetAgent)
	if target == "" {
		suggested, ok := routing.SuggestTargetAgent(task)
		if !ok {
			return nil, invalid("no target agent matches the task description; set targetAgent explicitly")
		}
		target = suggested
	}

	perm := hierarchy.CheckPermission(caller, hierarchy.ActionDelegateToWorker)
	s.audit(ctx, caller, hierarchy.ActionDelegateToWorker, target, sessionID, perm)
	if !perm.Allowed {
		return nil, s.denyDelegation(ctx, sessionID, caller, target, perm.Reason)
	}

	can := hierarchy.CanDelegate(caller, target)
	s.audit(ctx, caller, actionDelegate, target, sessionID, can)
	if !can.Allowed {
		return nil, s.denyDelegation(ctx, sessionID, caller, target, can.Reason)
	}

	if s.guardrail != nil {
		in, err := s.policyInput(ctx, sessionID, caller, target, task)
		if err != nil {
			return nil, err
		}
		res, err := s.guardrail.Evaluate(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate delegation policy: %w", err)
		}
		if res.Blocked() {
			reason := "blocked by policy: " + res.Reason
			s.audit(ctx, caller, actionDelegate, target, sessionID, hierarchy.Decision{Allowed: false, Reason: reason})
			return nil, s.denyDelegation(ctx, sessionID, caller, target, reason)
		}
	}

	d := &domain.Delegation{
		DelegationID:       "dlg_" + uuid.New().String(),
		SessionID:          sessionID,
		CallerAgent:        caller,
		TargetAgent:        target,
		TaskDescription:    task,
		ModelOverride:      s.config.ModelOverride,
		ModelOverrideScope: domain.OverrideScopeTask,
		Context:            req.Context,
		Status:             domain.DelegationStatusPending,
		CreatedAt:          s.nowMs(),
	}
	if err := s.store.CreateDelegation(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create delegation: %w", err)
	}

	s.recordEvent(ctx, d.DelegationID, sessionID, domain.EventTypeDelegationCreated, domain.DelegationEventPayload{
		DelegationID: d.DelegationID,
		CallerAgent:  caller,
		TargetAgent:  target,
		Status:       d.Status,
	})
	s.logger.Info("delegation created",
		zap.String("delegation_id", d.DelegationID),
		zap.String("caller", caller),
		zap.String("target", target),
		zap.Bool("routed", strings.TrimSpace(req.TargetAgent) == ""))

	return &domain.CreateDelegationResponse{
		DelegationID:       d.DelegationID,
		TargetAgent:        target,
		ModelOverride:      d.ModelOverride,
		ModelOverrideScope: d.ModelOverrideScope,
	}, nil
}

func (s *Service) denyDelegation(ctx context.Context, sessionID, caller, target, reason string) error {
	s.recordEvent(ctx, sessionID, sessionID, domain.EventTypeDelegationDenied, domain.DelegationEventPayload{
		CallerAgent: caller,
		TargetAgent: target,
		Reason:      reason,
	})
	s.logger.Info("delegation denied",
		zap.String("caller", caller), zap.String("target", target), zap.String("reason", reason))
	return &DeniedError{Reason: reason}
}

// policyInput describes the delegation for the guardrail. A session this
// service never saw leaves mode and status empty.
func (s *Service) policyInput(ctx context.Context, sessionID, caller, target, task string) (policy.Input, error) {
	in := policy.Input{
		CallerAgent:     caller,
		TargetAgent:     target,
		TaskDescription: task,
	}
	if a, ok := hierarchy.Lookup(caller); ok {
		in.CallerRank = float64(a.Rank)
	}
	if a, ok := hierarchy.Lookup(target); ok {
		in.TargetRank = float64(a.Rank)
	}
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return in, fmt.Errorf("failed to get session: %w", err)
	}
	if session != nil {
		in.SessionMode = string(session.Mode)
		in.SessionStatus = string(session.Status)
	}
	return in, nil
}

// SuggestTarget runs the routing heuristic.
func (s *Service) SuggestTarget(req domain.SuggestTargetRequest) (*domain.SuggestTargetResponse, error) {
	if strings.TrimSpace(req.TaskDescription) == "" {
		return nil, invalid("taskDescription is required")
	}
	agent, ok := routing.SuggestTargetAgent(req.TaskDescription)
	return &domain.SuggestTargetResponse{TargetAgent: agent, Matched: ok}, nil
}

// GetDelegation returns one delegation.
func (s *Service) GetDelegation(ctx context.Context, delegationID string) (*domain.Delegation, error) {
	d, err := s.store.GetDelegation(ctx, delegationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get delegation: %w", err)
	}
	if d == nil {
		return nil, notFound("delegation", delegationID)
	}
	return d, nil
}

// ListDelegations lists a session's delegations, newest first.
func (s *Service) ListDelegations(ctx context.Context, sessionID string, limit int) ([]domain.Delegation, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, invalid("sessionId is required")
	}
	list, err := s.store.ListDelegationsBySession(ctx, sessionID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list delegations: %w", err)
	}
	return list, nil
}

// ListPendingForAgent lists pending work queued for agent, oldest first.
func (s *Service) ListPendingForAgent(ctx context.Context, agent string) ([]domain.Delegation, error) {
	if strings.TrimSpace(agent) == "" {
		return nil, invalid("agent is required")
	}
	list, err := s.store.ListPendingForAgent(ctx, agent)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending delegations: %w", err)
	}
	return list, nil
}

// ClaimDelegation moves a pending delegation to in_progress. Concurrent
// claims are settled by the store's conditional update; the loser gets a
// ConflictError.
func (s *Service) ClaimDelegation(ctx context.Context, delegationID string, req domain.DelegationActionRequest) (*domain.Delegation, error) {
	d, err := s.GetDelegation(ctx, delegationID)
	if err != nil {
		return nil, err
	}
	if err := s.checkActor(ctx, d, req.Agent, hierarchy.ActionClaimDelegation); err != nil {
		return nil, err
	}
	if d.Status != domain.DelegationStatusPending {
		return nil, delegationConflict(d, domain.DelegationStatusPending)
	}

	ok, err := s.store.ClaimDelegation(ctx, delegationID, s.nowMs())
	if err != nil {
		return nil, fmt.Errorf("failed to claim delegation: %w", err)
	}
	if !ok {
		return nil, s.lostTransition(ctx, delegationID, domain.DelegationStatusPending)
	}
	return s.afterTransition(ctx, delegationID, domain.EventTypeDelegationClaimed, "")
}

// CompleteDelegation moves an in_progress delegation to completed. Completing
// an already completed delegation is a no-op.
func (s *Service) CompleteDelegation(ctx context.Context, delegationID string, req domain.DelegationActionRequest) (*domain.Delegation, error) {
	d, err := s.GetDelegation(ctx, delegationID)
	if err != nil {
		return nil, err
	}
	if err := s.checkActor(ctx, d, req.Agent, hierarchy.ActionCompleteDelegation); err != nil {
		return nil, err
	}
	switch d.Status {
	case domain.DelegationStatusCompleted:
		return d, nil
	case domain.DelegationStatusInProgress:
	default:
		return nil, delegationConflict(d, domain.DelegationStatusInProgress)
	}

	ok, err := s.store.CompleteDelegation(ctx, delegationID, req.Result, s.nowMs())
	if err != nil {
		return nil, fmt.Errorf("failed to complete delegation: %w", err)
	}
	if !ok {
		return nil, s.lostTransition(ctx, delegationID, domain.DelegationStatusInProgress)
	}
	return s.afterTransition(ctx, delegationID, domain.EventTypeDelegationCompleted, "")
}

// FailDelegation marks a pending or in_progress delegation failed. Failing
// an already failed delegation is a no-op.
func (s *Service) FailDelegation(ctx context.Context, delegationID string, req domain.DelegationActionRequest) (*domain.Delegation, error) {
	d, err := s.GetDelegation(ctx, delegationID)
	if err != nil {
		return nil, err
	}
	if err := s.checkActor(ctx, d, req.Agent, hierarchy.ActionFailDelegation); err != nil {
		return nil, err
	}
	switch d.Status {
	case domain.DelegationStatusFailed:
		return d, nil
	case domain.DelegationStatusCompleted:
		return nil, delegationConflict(d, "pending or in_progress")
	}

	ok, err := s.store.FailDelegation(ctx, delegationID, req.Error, s.nowMs())
	if err != nil {
		return nil, fmt.Errorf("failed to fail delegation: %w", err)
	}
	if !ok {
		return nil, s.lostTransition(ctx, delegationID, "pending or in_progress")
	}
	return s.afterTransition(ctx, delegationID, domain.EventTypeDelegationFailed, req.Error)
}

// checkActor verifies that agent, when given, is the delegation's target and
// holds the lifecycle permission.
func (s *Service) checkActor(ctx context.Context, d *domain.Delegation, agent, action string) error {
	agent = strings.TrimSpace(agent)
	if agent == "" {
		return nil
	}
	if agent != d.TargetAgent {
		decision := hierarchy.Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("%s is not the target of delegation %s (target is %s)", agent, d.DelegationID, d.TargetAgent),
		}
		s.audit(ctx, agent, action, d.DelegationID, d.SessionID, decision)
		return &DeniedError{Reason: decision.Reason}
	}
	perm := hierarchy.CheckPermission(agent, action)
	s.audit(ctx, agent, action, d.DelegationID, d.SessionID, perm)
	if !perm.Allowed {
		return &DeniedError{Reason: perm.Reason}
	}
	return nil
}

// lostTransition builds the conflict for a conditional update that matched
// no row because another request changed the delegation first.
func (s *Service) lostTransition(ctx context.Context, delegationID string, expected domain.DelegationStatus) error {
	d, err := s.GetDelegation(ctx, delegationID)
	if err != nil {
		return err
	}
	return delegationConflict(d, expected)
}

func (s *Service) afterTransition(ctx context.Context, delegationID string, eventType domain.EventType, reason string) (*domain.Delegation, error) {
	d, err := s.GetDelegation(ctx, delegationID)
	if err != nil {
		return nil, err
	}
	s.recordEvent(ctx, d.DelegationID, d.SessionID, eventType, domain.DelegationEventPayload{
		DelegationID: d.DelegationID,
		CallerAgent:  d.CallerAgent,
		TargetAgent:  d.TargetAgent,
		Status:       d.Status,
		Reason:       reason,
	})
	return d, nil
}

func delegationConflict(d *domain.Delegation, expected domain.DelegationStatus) error {
	return &ConflictError{
		Kind:     "delegation",
		ID:       d.DelegationID,
		Current:  string(d.Status),
		Expected: string(expected),
	}
}
