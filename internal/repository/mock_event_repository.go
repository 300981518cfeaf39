package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/sebasr/avt-ingest/internal/models"
)

// MockEventRepository is a mock implementation of EventRepository for testing
type MockEventRepository struct {
	InsertStabilityEventsFunc func(ctx context.Context, events []models.StabilityEvent) (int64, error)
	ListBySessionFunc         func(ctx context.Context, sessionID uuid.UUID) ([]*models.StabilityEvent, error)
}

// NewMockEventRepository creates a new mock event repository with default implementations
func NewMockEventRepository() *MockEventRepository {
	return &MockEventRepository{
		InsertStabilityEventsFunc: func(_ context.Context, events []models.StabilityEvent) (int64, error) {
			return int64(len(events)), nil
		},
		ListBySessionFunc: func(_ context.Context, _ uuid.UUID) ([]*models.StabilityEvent, error) {
			return []*models.StabilityEvent{}, nil
		},
	}
}

// InsertStabilityEvents implements EventRepository.InsertStabilityEvents
func (m *MockEventRepository) InsertStabilityEvents(ctx context.Context, events []models.StabilityEvent) (int64, error) {
	return m.InsertStabilityEventsFunc(ctx, events)
}

// ListBySession implements EventRepository.ListBySession
func (m *MockEventRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.StabilityEvent, error) {
	return m.ListBySessionFunc(ctx, sessionID)
}
