package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebasr/avt-ingest/internal/models"
)

const (
	gpsHeader = "GPS;15/07/2025-10:00:49;DOBACK024;Sesión:1"
	gpsFormat = "Fecha,Hora,Latitud,Longitud,Altitud,HDOP,Fix,NumSats,Velocidad"
)

func TestParseGPS_AcceptsValidRows(t *testing.T) {
	p := newTestParser()

	parsed := p.ParseGPS(lines(
		gpsHeader,
		gpsFormat,
		"15/07/2025,10:01:00,40.416800,-3.703800,650.5,1.2,1,8,42.5",
		"15/07/2025,10:01:01,40.416900,-3.703900,651.0,1.1,1,9,43.0,182.5",
	))

	require.Len(t, parsed.GPS, 2)
	assert.Empty(t, parsed.Discards)

	first := parsed.GPS[0]
	assert.Equal(t, time.Date(2025, 7, 15, 10, 1, 0, 0, time.UTC), first.Timestamp)
	assert.InDelta(t, 40.4168, first.Latitude, 1e-9)
	assert.InDelta(t, -3.7038, first.Longitude, 1e-9)
	assert.InDelta(t, 650.5, first.Altitude, 1e-9)
	assert.Equal(t, 8, first.Satellites)
	assert.Equal(t, 1, first.FixQuality)
	assert.InDelta(t, 42.5, first.SpeedKmh, 1e-9)
	assert.Nil(t, first.Heading)

	require.NotNil(t, parsed.GPS[1].Heading)
	assert.InDelta(t, 182.5, *parsed.GPS[1].Heading, 1e-9)
}

func TestParseGPS_CorrectsMissingLeadingDigits(t *testing.T) {
	p := newTestParser()

	parsed := p.ParseGPS(lines(
		gpsHeader,
		gpsFormat,
		"15/07/2025,10:01:00,0.416800,-0.703800,650,1.2,1,8,30",
		"15/07/2025,10:01:01,4.416900,-0.703900,650,1.2,1,8,30",
	))

	require.Len(t, parsed.GPS, 2)
	assert.InDelta(t, 40.416800, parsed.GPS[0].Latitude, 1e-9)
	assert.InDelta(t, -3.703800, parsed.GPS[0].Longitude, 1e-9)
	assert.InDelta(t, 40.416900, parsed.GPS[1].Latitude, 1e-9)
	assert.Equal(t, 2, parsed.Corrections[CorrectionLatitudePrefix])
	assert.Equal(t, 2, parsed.Corrections[CorrectionLongitudePrefix])
}

func TestParseGPS_OtherCorrections(t *testing.T) {
	p := newTestParser()

	parsed := p.ParseGPS(lines(
		gpsHeader,
		gpsFormat,
		"15/07/2025,10.01.05,40.416800,-3.703800,650,1.2,1,8,30",
		"15/07/2025,10:01:06,40.416800,-3.-3.7038,650,1.2,1,8,30",
		"15/07/2025,10:01:07,40.416800,-3.703800,650,1.2,1,8,30",
	))

	require.Len(t, parsed.GPS, 3)
	assert.Equal(t, time.Date(2025, 7, 15, 10, 1, 5, 0, time.UTC), parsed.GPS[0].Timestamp)
	assert.InDelta(t, -3.7038, parsed.GPS[1].Longitude, 1e-9)
	assert.Equal(t, 1, parsed.Corrections[CorrectionTimeSeparator])
	assert.Equal(t, 1, parsed.Corrections[CorrectionLongitudeLiteral])
	// 40.x must never be re-prefixed
	assert.Zero(t, parsed.Corrections[CorrectionLatitudePrefix])
}

func TestParseGPS_DiscardsInvalidRows(t *testing.T) {
	tests := []struct {
		name   string
		row    string
		reason models.ReasonCode
	}{
		{"too few columns", "15/07/2025,10:01:00,40.4168,-3.7038,650,1.2,1,8", models.ReasonColumnCount},
		{"no fix text", "sin datos GPS", models.ReasonColumnCount},
		{"latitude out of range", "15/07/2025,10:01:00,95.0,-3.7038,650,1.2,1,8,30", models.ReasonLatitudeRange},
		{"longitude out of range", "15/07/2025,10:01:00,40.4168,-183.0,650,1.2,1,8,30", models.ReasonLongitudeRange},
		{"altitude too low", "15/07/2025,10:01:00,40.4168,-3.7038,-1500,1.2,1,8,30", models.ReasonAltitudeRange},
		{"altitude too high", "15/07/2025,10:01:00,40.4168,-3.7038,10001,1.2,1,8,30", models.ReasonAltitudeRange},
		{"hdop too high", "15/07/2025,10:01:00,40.4168,-3.7038,650,50.5,1,8,30", models.ReasonHDOP},
		{"too few satellites", "15/07/2025,10:01:00,40.4168,-3.7038,650,1.2,1,2,30", models.ReasonSatellites},
		{"too many satellites", "15/07/2025,10:01:00,40.4168,-3.7038,650,1.2,1,21,30", models.ReasonSatellites},
		{"no fix", "15/07/2025,10:01:00,40.4168,-3.7038,650,1.2,0,8,30", models.ReasonFixQuality},
		{"differential fix", "15/07/2025,10:01:00,40.4168,-3.7038,650,1.2,2,8,30", models.ReasonFixQuality},
		{"bad timestamp", "15/17/2025,10:01:00,40.4168,-3.7038,650,1.2,1,8,30", models.ReasonTimestamp},
		{"non-numeric altitude", "15/07/2025,10:01:00,40.4168,-3.7038,abc,1.2,1,8,30", models.ReasonNumeric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestParser()
			parsed := p.ParseGPS(lines(gpsHeader, gpsFormat, tt.row))

			assert.Empty(t, parsed.GPS)
			require.Len(t, parsed.Discards, 1)
			assert.Equal(t, tt.reason, parsed.Discards[0].Reason)
			assert.Equal(t, 3, parsed.Discards[0].Line)
			assert.Equal(t, models.StreamGPS, parsed.Discards[0].Stream)
		})
	}
}

func TestParseGPS_EveryRejectedRowRecordedOnce(t *testing.T) {
	p := newTestParser()

	parsed := p.ParseGPS(lines(
		gpsHeader,
		gpsFormat,
		"15/07/2025,10:01:00,40.4168,-3.7038,650,1.2,1,8,30",
		"15/07/2025,10:01:01,40.4168,-3.7038,650,99,0,1,30",
		"",
		"15/07/2025,10:01:02,40.4168,-3.7038,650,1.2,1,8,30",
		"garbage",
	))

	assert.Len(t, parsed.GPS, 2)
	assert.Equal(t, []int{4, 7}, discardedLines(parsed))
}

func TestParseGPS_AnomalousSpeedAccepted(t *testing.T) {
	p := newTestParser()

	parsed := p.ParseGPS(lines(
		gpsHeader,
		gpsFormat,
		"15/07/2025,10:01:00,40.4168,-3.7038,650,1.2,1,8,245.0",
	))

	require.Len(t, parsed.GPS, 1)
	assert.Equal(t, 1, parsed.Anomalies)
	assert.Empty(t, parsed.Discards)
}

func TestParseGPS_WrapsOverflowingClock(t *testing.T) {
	p := newTestParser()

	parsed := p.ParseGPS(lines(
		gpsHeader,
		gpsFormat,
		"15/07/2025,10:60:00,40.4168,-3.7038,650,1.2,1,8,30",
	))

	require.Len(t, parsed.GPS, 1)
	assert.Equal(t, time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC), parsed.GPS[0].Timestamp)
}
