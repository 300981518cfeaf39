package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebasr/avt-ingest/internal/models"
)

func TestParseEngine_DetectsHeaderAfterNoise(t *testing.T) {
	p := newTestParser()

	parsed := p.ParseEngine(lines(
		"CAN decoder v2.3",
		"source: CAN_DOBACK024_20250715.txt",
		"",
		"Timestamp,Engine_RPM,Vehicle_Speed,Fuel_System_Status",
		"07/15/2025 10:01:00,850,0,2",
		"07/15/2025 10:01:01,1200.5,12.5,2",
	))

	require.Len(t, parsed.Engine, 2)
	assert.Empty(t, parsed.Discards)
	assert.Equal(t, time.Date(2025, 7, 15, 10, 1, 0, 0, time.UTC), parsed.Engine[0].Timestamp)
	assert.InDelta(t, 1200.5, parsed.Engine[1].EngineRPM, 1e-9)
	assert.InDelta(t, 12.5, parsed.Engine[1].VehicleSpeedKmh, 1e-9)
	assert.Equal(t, 2, parsed.Engine[1].FuelSystemStatus)
}

func TestParseEngine_SemicolonAndSynonyms(t *testing.T) {
	p := newTestParser()

	parsed := p.ParseEngine(lines(
		"Fecha;Revoluciones;Velocidad",
		"07/08/2025 10:01:00;900;35",
	))

	require.Len(t, parsed.Engine, 1)
	// Ambiguous engine dates read month first
	assert.Equal(t, time.Date(2025, 7, 8, 10, 1, 0, 0, time.UTC), parsed.Engine[0].Timestamp)
	assert.InDelta(t, 900, parsed.Engine[0].EngineRPM, 1e-9)
	assert.InDelta(t, 35, parsed.Engine[0].VehicleSpeedKmh, 1e-9)
	assert.Zero(t, parsed.Engine[0].FuelSystemStatus)
}

func TestParseEngine_OptionalFieldsDefaultToZero(t *testing.T) {
	p := newTestParser()

	parsed := p.ParseEngine(lines(
		"timestamp,engine_rpm",
		"2025-07-15 10:01:00,1500",
	))

	require.Len(t, parsed.Engine, 1)
	assert.Zero(t, parsed.Engine[0].VehicleSpeedKmh)
	assert.Zero(t, parsed.Engine[0].FuelSystemStatus)
}

func TestParseEngine_ColumnCountMismatch(t *testing.T) {
	p := newTestParser()

	parsed := p.ParseEngine(lines(
		"timestamp,engine_rpm,vehicle_speed,fuel_system_status,coolant,load",
		"2025-07-15 10:01:00,1500,30,2,88",
	))

	assert.Empty(t, parsed.Engine)
	require.Len(t, parsed.Discards, 1)
	assert.Equal(t, models.ReasonColumnCount, parsed.Discards[0].Reason)
	assert.Equal(t, "column count mismatch: expected 6, found 5", parsed.Discards[0].Detail)
	assert.Equal(t, 2, parsed.Discards[0].Line)
}

func TestParseEngine_NoHeader(t *testing.T) {
	p := newTestParser()

	parsed := p.ParseEngine(lines(
		"0x1A2,00 11 22",
		"",
		"0x1A3,33 44 55",
	))

	assert.Empty(t, parsed.Engine)
	require.Len(t, parsed.Discards, 2)
	for _, d := range parsed.Discards {
		assert.Equal(t, models.ReasonNoHeader, d.Reason)
	}
}

func TestParseEngine_HeaderBeyondScanLimit(t *testing.T) {
	p := newTestParser()

	rows := make([]string, 0, 22)
	for i := 0; i < 20; i++ {
		rows = append(rows, "banner")
	}
	rows = append(rows, "timestamp,engine_rpm", "2025-07-15 10:01:00,1500")

	parsed := p.ParseEngine(lines(rows...))

	assert.Empty(t, parsed.Engine)
	assert.Len(t, parsed.Discards, 22)
}

func TestParseEngine_RowDiscards(t *testing.T) {
	tests := []struct {
		name   string
		header string
		row    string
		reason models.ReasonCode
	}{
		{"required column absent from header", "timestamp,vehicle_speed", "2025-07-15 10:01:00,30", models.ReasonMissingField},
		{"empty rpm", "timestamp,engine_rpm", "2025-07-15 10:01:00,", models.ReasonMissingField},
		{"bad timestamp", "timestamp,engine_rpm", "yesterday,1500", models.ReasonTimestamp},
		{"bad rpm", "timestamp,engine_rpm", "2025-07-15 10:01:00,fast", models.ReasonNumeric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestParser()
			parsed := p.ParseEngine(lines(tt.header, tt.row))

			assert.Empty(t, parsed.Engine)
			require.Len(t, parsed.Discards, 1)
			assert.Equal(t, tt.reason, parsed.Discards[0].Reason)
		})
	}
}

func TestLocateEngineFields(t *testing.T) {
	idx := locateEngineFields([]string{"Time (s)", "Engine RPM", "Vehicle speed km/h", "Fuel system status"})

	assert.Equal(t, 0, idx["timestamp"])
	assert.Equal(t, 1, idx["engine_rpm"])
	assert.Equal(t, 2, idx["vehicle_speed"])
	assert.Equal(t, 3, idx["fuel_system_status"])

	idx = locateEngineFields([]string{"rpm", "timestamp"})
	assert.Equal(t, 1, idx["timestamp"])
	assert.Equal(t, 0, idx["engine_rpm"])
	assert.Equal(t, -1, idx["vehicle_speed"])
}
