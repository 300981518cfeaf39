package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sebasr/avt-ingest/internal/models"
	"github.com/sebasr/avt-ingest/internal/repository"
)

// ResolveVehicle looks up a vehicle by name within an organization
func (i *Ingestor) ResolveVehicle(ctx context.Context, name string, orgID uuid.UUID) (*models.Vehicle, error) {
	vehicle, err := i.deps.Vehicles.Resolve(ctx, name, orgID)
	if err != nil {
		if errors.Is(err, repository.ErrVehicleNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedVehicle, name)
		}
		return nil, fmt.Errorf("%w: resolve vehicle: %w", ErrPersistence, err)
	}
	return vehicle, nil
}

// Candidates lists and segments the vehicle's files without storing anything
func (i *Ingestor) Candidates(ctx context.Context, vehicleName string) ([]models.SessionCandidate, error) {
	files, err := i.deps.Inventory.List(ctx, vehicleName)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return i.deps.Segmenter.Segment(ctx, vehicleName, files)
}

// IngestVehicle resolves the vehicle, segments its inventory and ingests the
// candidates one at a time. The results cover every candidate attempted.
func (i *Ingestor) IngestVehicle(ctx context.Context, name string, orgID uuid.UUID) ([]models.IngestResult, error) {
	vehicle, err := i.ResolveVehicle(ctx, name, orgID)
	if err != nil {
		return nil, err
	}

	candidates, err := i.Candidates(ctx, vehicle.Name)
	if err != nil {
		return nil, err
	}

	results := make([]models.IngestResult, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, i.Ingest(ctx, vehicle, c))
	}

	i.logger.Info("vehicle ingested", "vehicle", vehicle.Name, "candidates", len(candidates))
	return results, nil
}
