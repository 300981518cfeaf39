package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sebasr/avt-ingest/internal/models"
)

// PostgresVehicleRepository implements VehicleRepository using PostgreSQL
type PostgresVehicleRepository struct {
	db *sql.DB
}

// NewPostgresVehicleRepository creates a new PostgreSQL vehicle repository
func NewPostgresVehicleRepository(db *sql.DB) *PostgresVehicleRepository {
	return &PostgresVehicleRepository{db: db}
}

// Resolve finds an active vehicle by name within an organization
func (r *PostgresVehicleRepository) Resolve(ctx context.Context, name string, orgID uuid.UUID) (*models.Vehicle, error) {
	query := `
		SELECT id, organization_id, name, is_active, created_at, updated_at
		FROM vehicles
		WHERE organization_id = $1 AND UPPER(name) = UPPER($2) AND is_active
	`

	var v models.Vehicle
	err := r.db.QueryRowContext(ctx, query, orgID, name).Scan(
		&v.ID,
		&v.OrganizationID,
		&v.Name,
		&v.IsActive,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("failed to resolve vehicle %s: %w", name, err)
	}

	return &v, nil
}

// Create registers a new vehicle
func (r *PostgresVehicleRepository) Create(ctx context.Context, v *models.Vehicle) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	query := `
		INSERT INTO vehicles (id, organization_id, name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, v.ID, v.OrganizationID, v.Name, v.IsActive, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrVehicleExists
		}
		return fmt.Errorf("failed to create vehicle: %w", err)
	}

	return nil
}
