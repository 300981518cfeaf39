package models

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle represents a vehicle registered to an organization
type Vehicle struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organizationId" db:"organization_id"`
	Name           string    `json:"name" db:"name"` // Code used in log file names, e.g. DOBACK024
	IsActive       bool      `json:"isActive" db:"is_active"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}
