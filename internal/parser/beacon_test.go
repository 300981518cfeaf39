package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebasr/avt-ingest/internal/models"
)

func TestParseBeacon(t *testing.T) {
	p := newTestParser()

	parsed := p.ParseBeacon(lines(
		"ROTATIVO;15/07/2025-10:00:49;DOBACK024;Sesión:1",
		"Fecha-Hora;Estado",
		"15/07/2025-10:01:00;1",
		"15/07/2025-10:02:00;0",
		"15/07/2025-10:03:00;2",
		"15/07/2025-10:04:00",
		"mañana;1",
		"15/07/2025-10:05:00;on",
	))

	require.Len(t, parsed.Beacon, 2)
	assert.Equal(t, time.Date(2025, 7, 15, 10, 1, 0, 0, time.UTC), parsed.Beacon[0].Timestamp)
	assert.Equal(t, 1, parsed.Beacon[0].State)
	assert.Equal(t, 0, parsed.Beacon[1].State)

	require.Len(t, parsed.Discards, 4)
	assert.Equal(t, models.ReasonInvalidState, parsed.Discards[0].Reason)
	assert.Equal(t, models.ReasonColumnCount, parsed.Discards[1].Reason)
	assert.Equal(t, "column count mismatch: expected 2, found 1", parsed.Discards[1].Detail)
	assert.Equal(t, models.ReasonTimestamp, parsed.Discards[2].Reason)
	assert.Equal(t, models.ReasonInvalidState, parsed.Discards[3].Reason)
	assert.Equal(t, []int{5, 6, 7, 8}, discardedLines(parsed))
}

func TestParseBeacon_CommaDelimited(t *testing.T) {
	p := newTestParser()

	parsed := p.ParseBeacon(lines(
		"ROTATIVO;DOBACK024",
		"timestamp,state",
		"2025-07-15T10:01:00Z,1",
	))

	require.Len(t, parsed.Beacon, 1)
	assert.Equal(t, time.Date(2025, 7, 15, 10, 1, 0, 0, time.UTC), parsed.Beacon[0].Timestamp)
	assert.Len(t, parsed.Warnings, 1)
}

func TestParseBeacon_HeaderOnly(t *testing.T) {
	p := newTestParser()

	parsed := p.ParseBeacon(lines("ROTATIVO;15/07/2025-10:00:49;DOBACK024"))

	assert.Empty(t, parsed.Beacon)
	assert.Empty(t, parsed.Discards)
	assert.Equal(t, "DOBACK024", parsed.Header.VehicleID)
}
