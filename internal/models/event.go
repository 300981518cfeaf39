package models

import (
	"time"

	"github.com/google/uuid"
)

// Severity levels for stability events
const (
	SeverityCritical = "critical"
	SeverityModerate = "moderate"
	SeverityLight    = "light"
)

// StabilityEvent is a contiguous stretch of low stability within a session
type StabilityEvent struct {
	ID                uuid.UUID `json:"id" db:"id"`
	SessionID         uuid.UUID `json:"sessionId" db:"session_id"`
	Start             time.Time `json:"start" db:"start_time"`
	End               time.Time `json:"end" db:"end_time"`
	MinStabilityIndex float64   `json:"minStabilityIndex" db:"min_stability_index"`
	Severity          string    `json:"severity" db:"severity"`
	Latitude          *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude         *float64  `json:"longitude,omitempty" db:"longitude"`
	SpeedKmh          *float64  `json:"speedKmh,omitempty" db:"speed_kmh"`
}
