package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/escalation"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/hierarchy"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/repository"
)

const recentDecisionCount = 5

type escalateParams struct {
	ConversationID string
	Session        *domain.Session // nil when the conversation is not a known session
	Trigger        domain.EscalationTrigger
	Summary        string
	UserNotes      string
	History        []domain.ConversationTurn
}

// CreateEscalation builds and stores a handoff packet for a conversation.
func (s *Service) CreateEscalation(ctx context.Context, req domain.CreateEscalationRequest) (*domain.CreateEscalationResponse, error) {
	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		return nil, invalid("conversationId is required")
	}
	if !req.Trigger.Valid() {
		return nil, invalid("unknown trigger %q", req.Trigger)
	}
	if strings.TrimSpace(req.Summary) == "" {
		return nil, invalid("summary is required")
	}

	session, err := s.store.GetSession(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	esc, err := s.escalate(ctx, escalateParams{
		ConversationID: conversationID,
		Session:        session,
		Trigger:        req.Trigger,
		Summary:        req.Summary,
		UserNotes:      req.UserNotes,
		History:        req.ConversationHistory,
	})
	if err != nil {
		return nil, err
	}
	return &domain.CreateEscalationResponse{
		EscalationID: esc.EscalationID,
		Status:       domain.EscalationStatusPending,
		Notified:     false,
	}, nil
}

// escalate routes the packet from the conversation owner to its superior.
func (s *Service) escalate(ctx context.Context, p escalateParams) (*domain.Escalation, error) {
	from := s.config.DefaultOrigin
	if p.Session != nil {
		from = p.Session.Owner
	}
	to := hierarchy.Superior(from)
	if to == "" {
		to = s.config.DefaultDestination
	}

	history := p.History
	if len(history) == 0 && p.Session != nil {
		history = s.storedHistory(ctx, p.ConversationID)
	}

	esc := escalation.BuildHandoffPacket(escalation.PacketInput{
		ConversationID: p.ConversationID,
		FromAgent:      from,
		ToAgent:        to,
		Trigger:        p.Trigger,
		Summary:        p.Summary,
		UserNotes:      p.UserNotes,
		History:        history,
		Memory:         s.memorySnapshot(ctx, p.ConversationID),
	}, s.now())

	if err := s.store.CreateEscalation(ctx, esc); err != nil {
		return nil, fmt.Errorf("failed to create escalation: %w", err)
	}

	notified := s.recordEvent(ctx, esc.EscalationID, p.ConversationID, domain.EventTypeEscalationCreated, escalationPayload(esc))
	if notified {
		if err := s.store.MarkEscalationNotified(ctx, esc.EscalationID); err != nil {
			s.logger.Warn("failed to mark escalation notified", zap.String("escalation_id", esc.EscalationID), zap.Error(err))
		} else {
			esc.Notified = true
		}
	}

	s.logger.Info("escalation created",
		zap.String("escalation_id", esc.EscalationID),
		zap.String("trigger", string(esc.Trigger)),
		zap.String("severity", string(esc.Severity)),
		zap.String("from", from),
		zap.String("to", to))
	return esc, nil
}

// storedHistory loads the tail of the stored conversation. Failures yield
// an empty history.
func (s *Service) storedHistory(ctx context.Context, sessionID string) []domain.ConversationTurn {
	msgs, err := s.store.RecentMessages(ctx, sessionID, escalation.HistoryLimit)
	if err != nil {
		s.logger.Warn("failed to load conversation history", zap.String("session_id", sessionID), zap.Error(err))
		return nil
	}
	turns := make([]domain.ConversationTurn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, domain.ConversationTurn{Role: string(m.Role), Content: m.Content, Timestamp: m.CreatedAt})
	}
	return turns
}

// memorySnapshot lists the conversation's open delegations and its latest
// audit decisions. Failures leave the affected list empty.
func (s *Service) memorySnapshot(ctx context.Context, sessionID string) domain.MemorySnapshot {
	snap := domain.MemorySnapshot{ActiveTasks: []string{}, RecentDecisions: []string{}}

	open, err := s.store.ListOpenDelegations(ctx, sessionID)
	if err != nil {
		s.logger.Warn("failed to load open delegations", zap.String("session_id", sessionID), zap.Error(err))
	}
	for _, d := range open {
		snap.ActiveTasks = append(snap.ActiveTasks,
			fmt.Sprintf("%s [%s] %s: %s", d.DelegationID, d.Status, d.TargetAgent, d.TaskDescription))
	}

	logs, err := s.store.ListPermissionLogs(ctx, repository.PermissionLogFilter{SessionID: sessionID, Limit: recentDecisionCount})
	if err != nil {
		s.logger.Warn("failed to load recent decisions", zap.String("session_id", sessionID), zap.Error(err))
	}
	for _, l := range logs {
		verdict := "denied"
		if l.Allowed {
			verdict = "allowed"
		}
		snap.RecentDecisions = append(snap.RecentDecisions,
			fmt.Sprintf("%s %s %s %s: %s", verdict, l.CallerAgent, l.Action, l.Resource, l.Reason))
	}
	return snap
}

// CheckEscalation runs the classifier without side effects. An empty mode
// is treated as operator.
func (s *Service) CheckEscalation(req domain.CheckEscalationRequest) (*domain.CheckEscalationResponse, error) {
	mode := req.Mode
	if mode == "" {
		mode = domain.SessionModeOperator
	}
	if !mode.Valid() {
		return nil, invalid("mode must be operator or advisor")
	}
	hit := escalation.CheckTriggers(req.Message, mode)
	if hit == nil {
		return &domain.CheckEscalationResponse{Escalate: false}, nil
	}
	return &domain.CheckEscalationResponse{Escalate: true, Trigger: hit.Trigger, Severity: hit.Severity}, nil
}

// GetEscalation returns one escalation.
func (s *Service) GetEscalation(ctx context.Context, escalationID string) (*domain.Escalation, error) {
	esc, err := s.store.GetEscalation(ctx, escalationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get escalation: %w", err)
	}
	if esc == nil {
		return nil, notFound("escalation", escalationID)
	}
	return esc, nil
}

// ListPendingEscalations lists escalations awaiting a decision, newest first.
func (s *Service) ListPendingEscalations(ctx context.Context, limit int) ([]domain.Escalation, error) {
	list, err := s.store.ListEscalations(ctx, domain.EscalationStatusPending, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list escalations: %w", err)
	}
	return list, nil
}

// ResolveEscalation closes a pending escalation as resolved or dismissed.
// An empty status means resolved.
func (s *Service) ResolveEscalation(ctx context.Context, escalationID string, req domain.ResolveEscalationRequest) (*domain.Escalation, error) {
	resolvedBy := strings.TrimSpace(req.ResolvedBy)
	if resolvedBy == "" {
		return nil, invalid("resolvedBy is required")
	}
	status := req.Status
	if status == "" {
		status = domain.EscalationStatusResolved
	}
	if status != domain.EscalationStatusResolved && status != domain.EscalationStatusDismissed {
		return nil, invalid("status must be resolved or dismissed")
	}

	esc, err := s.GetEscalation(ctx, escalationID)
	if err != nil {
		return nil, err
	}
	if esc.Status != domain.EscalationStatusPending {
		return nil, escalationConflict(esc)
	}

	ok, err := s.store.ResolveEscalation(ctx, escalationID, status, resolvedBy, req.Resolution, s.nowMs())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve escalation: %w", err)
	}
	esc, err = s.GetEscalation(ctx, escalationID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, escalationConflict(esc)
	}

	s.recordEvent(ctx, esc.EscalationID, esc.Context.ConversationID, domain.EventTypeEscalationResolved, escalationPayload(esc))
	return esc, nil
}

func escalationConflict(esc *domain.Escalation) error {
	return &ConflictError{
		Kind:     "escalation",
		ID:       esc.EscalationID,
		Current:  string(esc.Status),
		Expected: string(domain.EscalationStatusPending),
	}
}

func escalationPayload(esc *domain.Escalation) domain.EscalationEventPayload {
	return domain.EscalationEventPayload{
		EscalationID: esc.EscalationID,
		FromAgent:    esc.FromAgent,
		ToAgent:      esc.ToAgent,
		Trigger:      esc.Trigger,
		Severity:     esc.Severity,
		Status:       esc.Status,
		ResolvedBy:   esc.ResolvedBy,
	}
}
