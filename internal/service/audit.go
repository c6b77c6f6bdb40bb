package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/hierarchy"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/repository"
)

// audit appends a permission decision to the audit log. Failures are logged
// and swallowed.
func (s *Service) audit(ctx context.Context, caller, action, resource, sessionID string, d hierarchy.Decision) {
	entry := &domain.PermissionLogEntry{
		LogID:       "log_" + uuid.New().String(),
		CallerAgent: caller,
		Action:      action,
		Resource:    resource,
		Allowed:     d.Allowed,
		Reason:      d.Reason,
		SessionID:   sessionID,
		Timestamp:   s.nowMs(),
	}
	if err := s.store.CreatePermissionLog(ctx, entry); err != nil {
		s.logger.Warn("failed to write permission log",
			zap.String("caller", caller), zap.String("action", action), zap.Error(err))
	}
}

// CheckPermission evaluates and audits a permission check.
func (s *Service) CheckPermission(ctx context.Context, req domain.CheckPermissionRequest) (*domain.PermissionDecision, error) {
	caller := strings.TrimSpace(req.CallerAgent)
	action := strings.TrimSpace(req.Action)
	if caller == "" {
		return nil, invalid("callerAgent is required")
	}
	if action == "" {
		return nil, invalid("action is required")
	}

	d := hierarchy.CheckPermission(caller, action)
	s.audit(ctx, caller, action, req.Resource, req.SessionID, d)
	return &domain.PermissionDecision{Allowed: d.Allowed, Reason: d.Reason}, nil
}

// LogPermission appends an externally made decision to the audit log.
func (s *Service) LogPermission(ctx context.Context, req domain.LogPermissionRequest) (*domain.PermissionLogEntry, error) {
	if strings.TrimSpace(req.CallerAgent) == "" {
		return nil, invalid("callerAgent is required")
	}
	if strings.TrimSpace(req.Action) == "" {
		return nil, invalid("action is required")
	}

	entry := &domain.PermissionLogEntry{
		LogID:       "log_" + uuid.New().String(),
		CallerAgent: req.CallerAgent,
		Action:      req.Action,
		Resource:    req.Resource,
		Allowed:     req.Allowed,
		Reason:      req.Reason,
		SessionID:   req.SessionID,
		Timestamp:   s.nowMs(),
	}
	if err := s.store.CreatePermissionLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to write permission log: %w", err)
	}
	return entry, nil
}

// ListDenied returns the latest denied decisions.
func (s *Service) ListDenied(ctx context.Context, limit int) ([]domain.PermissionLogEntry, error) {
	return s.listPermissionLogs(ctx, repository.PermissionLogFilter{DeniedOnly: true, Limit: clampLimit(limit)})
}

// ListByAgent returns the latest decisions made for one caller.
func (s *Service) ListByAgent(ctx context.Context, caller string, limit int) ([]domain.PermissionLogEntry, error) {
	if strings.TrimSpace(caller) == "" {
		return nil, invalid("agent is required")
	}
	return s.listPermissionLogs(ctx, repository.PermissionLogFilter{CallerAgent: caller, Limit: clampLimit(limit)})
}

// ListRecent returns the latest decisions.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]domain.PermissionLogEntry, error) {
	return s.listPermissionLogs(ctx, repository.PermissionLogFilter{Limit: clampLimit(limit)})
}

func (s *Service) listPermissionLogs(ctx context.Context, filter repository.PermissionLogFilter) ([]domain.PermissionLogEntry, error) {
	entries, err := s.store.ListPermissionLogs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list permission logs: %w", err)
	}
	return entries, nil
}
