package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sebasr/avt-ingest/internal/models"
)

var (
	// ErrSessionNotFound is returned when a session is not found
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionNumberTaken is returned when another writer claimed the session number first
	ErrSessionNumberTaken = errors.New("session number already taken")
)

// SessionRepository defines the interface for session and sample persistence
type SessionRepository interface {
	// FindOverlapping returns an existing session of the vehicle whose start
	// and end each lie within tolerance of the given bounds, or nil
	FindOverlapping(ctx context.Context, vehicleID uuid.UUID, start, end time.Time, tolerance time.Duration) (*models.Session, error)

	// NextSessionNumber returns one more than the highest number used by the vehicle, or 1
	NextSessionNumber(ctx context.Context, vehicleID uuid.UUID) (int, error)

	// Create stores a new session, filling in ID and CreatedAt
	Create(ctx context.Context, session *models.Session) error

	// Insert*Samples write one chunk of samples, skipping rows whose
	// (session, timestamp) already exists. They return the rows written.
	InsertGPSSamples(ctx context.Context, sessionID uuid.UUID, samples []models.GPSample) (int64, error)
	InsertInertialSamples(ctx context.Context, sessionID uuid.UUID, samples []models.InertialSample) (int64, error)
	InsertEngineSamples(ctx context.Context, sessionID uuid.UUID, samples []models.EngineSample) (int64, error)
	InsertBeaconSamples(ctx context.Context, sessionID uuid.UUID, samples []models.BeaconSample) (int64, error)

	// ListByVehicle returns the vehicle's sessions, newest first
	ListByVehicle(ctx context.Context, vehicleID uuid.UUID, limit int) ([]*models.Session, error)

	// GetByID retrieves a session by its UUID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
}
