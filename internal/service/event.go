package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/repository"
)

// recordEvent persists an activity event and pushes it to feed subscribers.
// Failures are logged and never returned. It reports whether a live
// subscriber received the event.
func (s *Service) recordEvent(ctx context.Context, aggregateID, sessionID string, eventType domain.EventType, payload interface{}) bool {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("failed to marshal event payload", zap.String("type", string(eventType)), zap.Error(err))
		return false
	}

	event := &domain.Event{
		EventID:     "evt_" + uuid.New().String()[:8],
		AggregateID: aggregateID,
		SessionID:   sessionID,
		Ts:          s.nowMs(),
		Type:        eventType,
		Payload:     payloadBytes,
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		s.logger.Warn("failed to record event",
			zap.String("type", string(eventType)), zap.String("aggregate_id", aggregateID), zap.Error(err))
	}

	if s.notifier == nil {
		return false
	}
	return s.notifier.Notify(sessionID, event)
}

// ListActivity returns recent events, newest first. An empty sessionID lists
// every session.
func (s *Service) ListActivity(ctx context.Context, sessionID string, limit int) ([]domain.Event, error) {
	events, err := s.store.ListEvents(ctx, repository.EventFilter{SessionID: sessionID, Limit: clampLimit(limit)})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}
