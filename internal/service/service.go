// Package service implements delegation, session, audit and escalation
// orchestration on top of the store, the hierarchy and the guardrail policy.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/config"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/policy"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Guardrail evaluates the delegation policy.
type Guardrail interface {
	Evaluate(ctx context.Context, input policy.Input) (policy.Result, error)
}

// Notifier pushes activity events to live subscribers and reports whether
// anyone was listening.
type Notifier interface {
	Notify(sessionID string, ev *domain.Event) bool
}

type Service struct {
	store     repository.Store
	guardrail Guardrail
	notifier  Notifier
	config    *config.Config
	logger    *zap.Logger
	now       func() time.Time
}

// New creates the service. guardrail and notifier may be nil.
func New(store repository.Store, guardrail Guardrail, notifier Notifier, cfg *config.Config, logger *zap.Logger) *Service {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		guardrail: guardrail,
		notifier:  notifier,
		config:    cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) nowMs() int64 {
	return s.now().UnixMilli()
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
