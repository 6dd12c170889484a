package outbox

import (
	"context"
	"fmt"
)

// ReplayStore is the part of Repository the replay service needs.
type ReplayStore interface {
	GetFailedEvents(ctx context.Context, limit int) ([]*Event, error)
	ReplayEvent(ctx context.Context, eventID int64) error
	ReplayFailedEvents(ctx context.Context, limit int) (int, error)
}

// ReplayService puts failed events back in the dispatcher's queue.
type ReplayService struct {
	repo ReplayStore
}

func NewReplayService(repo ReplayStore) *ReplayService {
	return &ReplayService{repo: repo}
}

// ListFailed returns up to limit failed events.
func (s *ReplayService) ListFailed(ctx context.Context, limit int) ([]*Event, error) {
	return s.repo.GetFailedEvents(ctx, clampLimit(limit))
}

// ReplayEvent resets one event; the dispatcher publishes it on its next tick.
func (s *ReplayService) ReplayEvent(ctx context.Context, eventID int64) error {
	if err := s.repo.ReplayEvent(ctx, eventID); err != nil {
		return fmt.Errorf("replay event %d: %w", eventID, err)
	}
	return nil
}

// ReplayFailedEvents resets up to limit failed events and returns how many.
func (s *ReplayService) ReplayFailedEvents(ctx context.Context, limit int) (int, error) {
	n, err := s.repo.ReplayFailedEvents(ctx, clampLimit(limit))
	if err != nil {
		return 0, fmt.Errorf("replay failed events: %w", err)
	}
	return n, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 100
	}
	return limit
}
