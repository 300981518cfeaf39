package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/sebasr/avt-ingest/internal/models"
)

// EventRepository defines the interface for stability event persistence
type EventRepository interface {
	// InsertStabilityEvents stores events, skipping ones already recorded
	// for the same session and start instant
	InsertStabilityEvents(ctx context.Context, events []models.StabilityEvent) (int64, error)

	// ListBySession returns a session's events in time order
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.StabilityEvent, error)
}
