package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/escalation"
)

const summaryExcerpt = 200

// PostMessage records a chat turn. User turns bump the message count once
// and run through the escalation classifier in the session's mode.
func (s *Service) PostMessage(ctx context.Context, sessionID string, req domain.PostMessageRequest) (*domain.PostMessageResponse, error) {
	if !req.Role.Valid() {
		return nil, invalid("role must be user, assistant or system")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, invalid("content is required")
	}

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == domain.SessionStatusClosed {
		return nil, &ConflictError{Kind: "session", ID: sessionID, Current: string(session.Status), Expected: string(domain.SessionStatusActive)}
	}

	msg := &domain.Message{
		MessageID: "msg_" + uuid.New().String(),
		SessionID: sessionID,
		Role:      req.Role,
		Content:   req.Content,
		CreatedAt: s.nowMs(),
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	resp := &domain.PostMessageResponse{MessageID: msg.MessageID, MessageCount: session.MessageCount}
	if req.Role == domain.MessageRoleUser {
		count, err := s.IncrementMessageCount(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		resp.MessageCount = count
	}

	s.recordEvent(ctx, msg.MessageID, sessionID, domain.EventTypeMessageReceived, domain.MessageEventPayload{
		MessageID: msg.MessageID,
		Role:      msg.Role,
	})

	if req.Role != domain.MessageRoleUser {
		return resp, nil
	}
	hit := escalation.CheckTriggers(req.Content, session.Mode)
	if hit == nil {
		return resp, nil
	}

	esc, err := s.escalate(ctx, escalateParams{
		ConversationID: sessionID,
		Session:        session,
		Trigger:        hit.Trigger,
		Summary:        autoSummary(hit.Trigger, req.Content),
	})
	if err != nil {
		// The turn is stored; a failed escalation must not lose it.
		s.logger.Error("auto escalation failed",
			zap.String("session_id", sessionID), zap.String("trigger", string(hit.Trigger)), zap.Error(err))
		return resp, nil
	}
	resp.Escalated = true
	resp.EscalationID = esc.EscalationID
	resp.Trigger = esc.Trigger
	resp.Severity = esc.Severity
	return resp, nil
}

// ListMessages lists a session's turns, oldest first.
func (s *Service) ListMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, sessionID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

func autoSummary(trigger domain.EscalationTrigger, content string) string {
	excerpt := strings.TrimSpace(content)
	if r := []rune(excerpt); len(r) > summaryExcerpt {
		excerpt = string(r[:summaryExcerpt]) + "..."
	}
	return fmt.Sprintf("auto-escalated (%s): %s", trigger, excerpt)
}
