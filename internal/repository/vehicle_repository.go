// Package repository provides data access interfaces and implementations.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/sebasr/avt-ingest/internal/models"
)

var (
	// ErrVehicleNotFound is returned when no active vehicle matches
	ErrVehicleNotFound = errors.New("vehicle not found")

	// ErrVehicleExists is returned when the name is already registered in the organization
	ErrVehicleExists = errors.New("vehicle already exists")
)

// VehicleRepository defines the interface for vehicle data access
type VehicleRepository interface {
	// Resolve finds the active vehicle with the given name (case-insensitive)
	// inside an organization
	Resolve(ctx context.Context, name string, orgID uuid.UUID) (*models.Vehicle, error)

	// Create registers a new vehicle
	Create(ctx context.Context, vehicle *models.Vehicle) error
}
