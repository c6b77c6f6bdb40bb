package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/hierarchy"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/repository"
)

// CreateSession opens an active session for one of the session owners. A
// caller opening a session for another owner needs spawn_session.
func (s *Service) CreateSession(ctx context.Context, req domain.CreateSessionRequest) (*domain.Session, error) {
	owner := strings.TrimSpace(req.Owner)
	if !hierarchy.IsSessionOwner(owner) {
		return nil, invalid("owner must be one of %s", strings.Join(hierarchy.SessionOwners(), ", "))
	}
	if !req.Mode.Valid() {
		return nil, invalid("mode must be operator or advisor")
	}
	if len(req.Metadata) > 0 && !json.Valid(req.Metadata) {
		return nil, invalid("metadata must be valid JSON")
	}

	if caller := strings.TrimSpace(req.CallerAgent); caller != "" {
		action := hierarchy.ActionCreateSession
		if caller != owner {
			action = hierarchy.ActionSpawnSession
		}
		perm := hierarchy.CheckPermission(caller, action)
		s.audit(ctx, caller, action, owner, "", perm)
		if !perm.Allowed {
			return nil, &DeniedError{Reason: perm.Reason}
		}
	}

	session := &domain.Session{
		SessionID: "sess_" + uuid.New().String(),
		Owner:     owner,
		Mode:      req.Mode,
		Status:    domain.SessionStatusActive,
		Metadata:  req.Metadata,
		CreatedAt: s.nowMs(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.recordEvent(ctx, session.SessionID, session.SessionID, domain.EventTypeSessionCreated, sessionPayload(session))
	return session, nil
}

// GetSession returns one session.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, notFound("session", sessionID)
	}
	return session, nil
}

// ListSessions lists sessions newest first. Empty owner or status match all.
func (s *Service) ListSessions(ctx context.Context, owner string, status domain.SessionStatus, limit int) ([]domain.Session, error) {
	if status != "" && status != domain.SessionStatusActive && status != domain.SessionStatusClosed {
		return nil, invalid("status must be active or closed")
	}
	list, err := s.store.ListSessions(ctx, repository.SessionFilter{
		Owner:  strings.TrimSpace(owner),
		Status: status,
		Limit:  clampLimit(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return list, nil
}

// CloseSession closes a session. Closing a closed session succeeds without
// changing it.
func (s *Service) CloseSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == domain.SessionStatusClosed {
		return session, nil
	}

	closed, err := s.store.CloseSession(ctx, sessionID, s.nowMs())
	if err != nil {
		return nil, fmt.Errorf("failed to close session: %w", err)
	}
	session, err = s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if closed {
		s.recordEvent(ctx, sessionID, sessionID, domain.EventTypeSessionClosed, sessionPayload(session))
	}
	return session, nil
}

// IncrementMessageCount adds exactly one to the session's message count.
func (s *Service) IncrementMessageCount(ctx context.Context, sessionID string) (int, error) {
	count, ok, err := s.store.IncrementMessageCount(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to increment message count: %w", err)
	}
	if !ok {
		return 0, notFound("session", sessionID)
	}
	return count, nil
}

func sessionPayload(session *domain.Session) domain.SessionEventPayload {
	return domain.SessionEventPayload{
		Owner:        session.Owner,
		Mode:         session.Mode,
		Status:       session.Status,
		MessageCount: session.MessageCount,
	}
}
