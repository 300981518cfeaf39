package models

import "github.com/google/uuid"

// IngestResult is the structured outcome of ingesting one session candidate
type IngestResult struct {
	VehicleID       string               `json:"vehicleId"`
	SessionID       *uuid.UUID           `json:"sessionId,omitempty"`
	SessionNumber   int                  `json:"sessionNumber,omitempty"`
	Success         bool                 `json:"success"`
	Skipped         bool                 `json:"skipped"`               // Duplicate of an existing session
	DuplicateOf     *uuid.UUID           `json:"duplicateOf,omitempty"` // Existing session that matched
	Inserted        map[StreamType]int64 `json:"inserted"`
	Discarded       map[StreamType]int   `json:"discarded"`
	EventsGenerated int                  `json:"eventsGenerated"`
	Warnings        []string             `json:"warnings,omitempty"`
	Error           string               `json:"error,omitempty"`
	Retryable       bool                 `json:"retryable"`
}

// NewIngestResult creates an empty result with initialized counters
func NewIngestResult(vehicleID string) *IngestResult {
	return &IngestResult{
		VehicleID: vehicleID,
		Inserted:  make(map[StreamType]int64),
		Discarded: make(map[StreamType]int),
	}
}

// Warn appends a human-readable warning
func (r *IngestResult) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Fail marks the result as failed with the given error
func (r *IngestResult) Fail(err error, retryable bool) {
	r.Success = false
	r.Error = err.Error()
	r.Retryable = retryable
}
