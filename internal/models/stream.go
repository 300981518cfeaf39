// Package models contains data models for the telemetry ingestion pipeline.
package models

import "time"

// StreamType identifies one of the four on-board sensor log kinds
type StreamType string

const (
	StreamGPS      StreamType = "GPS"
	StreamInertial StreamType = "INERTIAL"
	StreamEngine   StreamType = "ENGINE"
	StreamBeacon   StreamType = "BEACON"
)

// AllStreams returns every stream type in canonical order
func AllStreams() []StreamType {
	return []StreamType{StreamGPS, StreamInertial, StreamEngine, StreamBeacon}
}

// String implements fmt.Stringer
func (s StreamType) String() string {
	return string(s)
}

// RawFile is one closed log file as enumerated by the file inventory.
// Values are never modified after creation.
type RawFile struct {
	Path         string     `json:"path"`
	VehicleID    string     `json:"vehicleId"`    // Vehicle code embedded in the file name
	Stream       StreamType `json:"stream"`       // Which sensor produced the file
	CalendarDate time.Time  `json:"calendarDate"` // Day encoded in the file name
	Translated   bool       `json:"translated"`   // Engine files already decoded
}
