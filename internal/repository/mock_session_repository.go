package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sebasr/avt-ingest/internal/models"
)

// MockSessionRepository is a mock implementation of SessionRepository for testing
type MockSessionRepository struct {
	FindOverlappingFunc       func(ctx context.Context, vehicleID uuid.UUID, start, end time.Time, tolerance time.Duration) (*models.Session, error)
	NextSessionNumberFunc     func(ctx context.Context, vehicleID uuid.UUID) (int, error)
	CreateFunc                func(ctx context.Context, session *models.Session) error
	InsertGPSSamplesFunc      func(ctx context.Context, sessionID uuid.UUID, samples []models.GPSample) (int64, error)
	InsertInertialSamplesFunc func(ctx context.Context, sessionID uuid.UUID, samples []models.InertialSample) (int64, error)
	InsertEngineSamplesFunc   func(ctx context.Context, sessionID uuid.UUID, samples []models.EngineSample) (int64, error)
	InsertBeaconSamplesFunc   func(ctx context.Context, sessionID uuid.UUID, samples []models.BeaconSample) (int64, error)
	ListByVehicleFunc         func(ctx context.Context, vehicleID uuid.UUID, limit int) ([]*models.Session, error)
	GetByIDFunc               func(ctx context.Context, id uuid.UUID) (*models.Session, error)
}

// NewMockSessionRepository creates a mock with an empty store whose inserts
// report every sample as written
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{
		FindOverlappingFunc: func(_ context.Context, _ uuid.UUID, _, _ time.Time, _ time.Duration) (*models.Session, error) {
			return nil, nil
		},
		NextSessionNumberFunc: func(_ context.Context, _ uuid.UUID) (int, error) {
			return 1, nil
		},
		CreateFunc: func(_ context.Context, s *models.Session) error {
			if s.ID == uuid.Nil {
				s.ID = uuid.New()
			}
			return nil
		},
		InsertGPSSamplesFunc: func(_ context.Context, _ uuid.UUID, samples []models.GPSample) (int64, error) {
			return int64(len(samples)), nil
		},
		InsertInertialSamplesFunc: func(_ context.Context, _ uuid.UUID, samples []models.InertialSample) (int64, error) {
			return int64(len(samples)), nil
		},
		InsertEngineSamplesFunc: func(_ context.Context, _ uuid.UUID, samples []models.EngineSample) (int64, error) {
			return int64(len(samples)), nil
		},
		InsertBeaconSamplesFunc: func(_ context.Context, _ uuid.UUID, samples []models.BeaconSample) (int64, error) {
			return int64(len(samples)), nil
		},
		ListByVehicleFunc: func(_ context.Context, _ uuid.UUID, _ int) ([]*models.Session, error) {
			return []*models.Session{}, nil
		},
		GetByIDFunc: func(_ context.Context, _ uuid.UUID) (*models.Session, error) {
			return nil, ErrSessionNotFound
		},
	}
}

// FindOverlapping implements SessionRepository.FindOverlapping
func (m *MockSessionRepository) FindOverlapping(ctx context.Context, vehicleID uuid.UUID, start, end time.Time, tolerance time.Duration) (*models.Session, error) {
	return m.FindOverlappingFunc(ctx, vehicleID, start, end, tolerance)
}

// NextSessionNumber implements SessionRepository.NextSessionNumber
func (m *MockSessionRepository) NextSessionNumber(ctx context.Context, vehicleID uuid.UUID) (int, error) {
	return m.NextSessionNumberFunc(ctx, vehicleID)
}

// Create implements SessionRepository.Create
func (m *MockSessionRepository) Create(ctx context.Context, session *models.Session) error {
	return m.CreateFunc(ctx, session)
}

// InsertGPSSamples implements SessionRepository.InsertGPSSamples
func (m *MockSessionRepository) InsertGPSSamples(ctx context.Context, sessionID uuid.UUID, samples []models.GPSample) (int64, error) {
	return m.InsertGPSSamplesFunc(ctx, sessionID, samples)
}

// InsertInertialSamples implements SessionRepository.InsertInertialSamples
func (m *MockSessionRepository) InsertInertialSamples(ctx context.Context, sessionID uuid.UUID, samples []models.InertialSample) (int64, error) {
	return m.InsertInertialSamplesFunc(ctx, sessionID, samples)
}

// InsertEngineSamples implements SessionRepository.InsertEngineSamples
func (m *MockSessionRepository) InsertEngineSamples(ctx context.Context, sessionID uuid.UUID, samples []models.EngineSample) (int64, error) {
	return m.InsertEngineSamplesFunc(ctx, sessionID, samples)
}

// InsertBeaconSamples implements SessionRepository.InsertBeaconSamples
func (m *MockSessionRepository) InsertBeaconSamples(ctx context.Context, sessionID uuid.UUID, samples []models.BeaconSample) (int64, error) {
	return m.InsertBeaconSamplesFunc(ctx, sessionID, samples)
}

// ListByVehicle implements SessionRepository.ListByVehicle
func (m *MockSessionRepository) ListByVehicle(ctx context.Context, vehicleID uuid.UUID, limit int) ([]*models.Session, error) {
	return m.ListByVehicleFunc(ctx, vehicleID, limit)
}

// GetByID implements SessionRepository.GetByID
func (m *MockSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	return m.GetByIDFunc(ctx, id)
}
