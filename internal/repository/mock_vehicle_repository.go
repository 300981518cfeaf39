package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/sebasr/avt-ingest/internal/models"
)

// MockVehicleRepository is a mock implementation of VehicleRepository for testing
type MockVehicleRepository struct {
	ResolveFunc func(ctx context.Context, name string, orgID uuid.UUID) (*models.Vehicle, error)
	CreateFunc  func(ctx context.Context, vehicle *models.Vehicle) error
}

// NewMockVehicleRepository creates a mock that knows no vehicles
func NewMockVehicleRepository() *MockVehicleRepository {
	return &MockVehicleRepository{
		ResolveFunc: func(_ context.Context, _ string, _ uuid.UUID) (*models.Vehicle, error) {
			return nil, ErrVehicleNotFound
		},
		CreateFunc: func(_ context.Context, _ *models.Vehicle) error {
			return nil
		},
	}
}

// Resolve implements VehicleRepository.Resolve
func (m *MockVehicleRepository) Resolve(ctx context.Context, name string, orgID uuid.UUID) (*models.Vehicle, error) {
	return m.ResolveFunc(ctx, name, orgID)
}

// Create implements VehicleRepository.Create
func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	return m.CreateFunc(ctx, vehicle)
}
