package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a persisted, deduplicated driving session of one vehicle
type Session struct {
	ID             uuid.UUID `json:"id" db:"id"`
	VehicleID      uuid.UUID `json:"vehicleId" db:"vehicle_id"`
	OrganizationID uuid.UUID `json:"organizationId" db:"organization_id"`
	StartTime      time.Time `json:"startTime" db:"start_time"`
	EndTime        time.Time `json:"endTime" db:"end_time"`
	SessionNumber  int       `json:"sessionNumber" db:"session_number"` // Per-vehicle counter, never reused
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// Duration returns the time covered by the session
func (s *Session) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// TimeRange is a closed interval of instants
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two closed intervals share at least one instant
func (r TimeRange) Overlaps(o TimeRange) bool {
	return !r.Start.After(o.End) && !o.Start.After(r.End)
}

// Extend grows the range so that it also covers o. A zero range adopts o.
func (r TimeRange) Extend(o TimeRange) TimeRange {
	if r.Start.IsZero() && r.End.IsZero() {
		return o
	}
	if o.Start.Before(r.Start) {
		r.Start = o.Start
	}
	if o.End.After(r.End) {
		r.End = o.End
	}
	return r
}

// TimeFragment is the time span of one parsed file, used only while segmenting
type TimeFragment struct {
	Stream              StreamType `json:"stream"`
	SourceFile          RawFile    `json:"sourceFile"`
	Start               time.Time  `json:"start"`
	End                 time.Time  `json:"end"`
	DetectedOffsetHours int        `json:"detectedOffsetHours"`
}

// Range returns the fragment bounds as a TimeRange
func (f TimeFragment) Range() TimeRange {
	return TimeRange{Start: f.Start, End: f.End}
}

// SessionCandidate is a group of files believed to belong to one drive
type SessionCandidate struct {
	VehicleID      string                 `json:"vehicleId"`
	Files          map[StreamType]RawFile `json:"files"`
	MissingStreams []StreamType           `json:"missingStreams"`
	Warnings       []string               `json:"warnings"`
	TimeRange      TimeRange              `json:"timeRange"`
}

// HasStream reports whether the candidate carries a file for the stream
func (c *SessionCandidate) HasStream(s StreamType) bool {
	_, ok := c.Files[s]
	return ok
}
