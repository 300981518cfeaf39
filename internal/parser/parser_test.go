package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebasr/avt-ingest/internal/clock"
	"github.com/sebasr/avt-ingest/internal/logging"
	"github.com/sebasr/avt-ingest/internal/models"
	"github.com/sebasr/avt-ingest/internal/timeparse"
)

var testNow = time.Date(2025, 7, 20, 12, 0, 0, 0, time.UTC)

func newTestParser() *Parser {
	norm := timeparse.New(time.UTC, clock.NewFixed(testNow))
	return New(norm, logging.Discard())
}

func lines(rows ...string) []byte {
	return []byte(strings.Join(rows, "\n") + "\n")
}

// discardedLines returns the ledger line numbers in order
func discardedLines(p *Parsed) []int {
	out := make([]int, 0, len(p.Discards))
	for _, d := range p.Discards {
		out = append(out, d.Line)
	}
	return out
}

func TestParse_Dispatch(t *testing.T) {
	p := newTestParser()

	for _, s := range models.AllStreams() {
		parsed, err := p.Parse(s, nil)
		require.NoError(t, err)
		assert.Equal(t, s, parsed.Stream)
		assert.Zero(t, parsed.Len())
	}

	_, err := p.Parse(models.StreamType("RADAR"), nil)
	assert.Error(t, err)
}

func TestParseHeader(t *testing.T) {
	p := newTestParser()
	out := newParsed(models.StreamGPS)

	p.parseHeader("GPS;15/07/2025-10:00:49;DOBACK024;Sesión:3;", models.StreamGPS, out)

	assert.Equal(t, time.Date(2025, 7, 15, 10, 0, 49, 0, time.UTC), out.Header.BaseTime)
	assert.True(t, out.Header.BaseTimeOK)
	assert.Equal(t, "DOBACK024", out.Header.VehicleID)
	assert.Equal(t, "3", out.Header.SessionLabel)
	assert.Empty(t, out.Warnings)
}

func TestParseHeader_FallsBackToNow(t *testing.T) {
	p := newTestParser()
	out := newParsed(models.StreamBeacon)

	p.parseHeader("ROTATIVO;DOBACK024", models.StreamBeacon, out)

	assert.Equal(t, testNow, out.Header.BaseTime)
	assert.False(t, out.Header.BaseTimeOK)
	assert.Equal(t, "DOBACK024", out.Header.VehicleID)
	assert.Len(t, out.Warnings, 1)
}

func TestParsed_Span(t *testing.T) {
	p := &Parsed{
		Stream: models.StreamBeacon,
		Beacon: []models.BeaconSample{
			{Timestamp: testNow.Add(time.Minute)},
			{Timestamp: testNow},
			{Timestamp: testNow.Add(3 * time.Minute)},
		},
	}

	span, ok := p.Span()
	require.True(t, ok)
	assert.Equal(t, testNow, span.Start)
	assert.Equal(t, testNow.Add(3*time.Minute), span.End)

	_, ok = (&Parsed{Stream: models.StreamGPS}).Span()
	assert.False(t, ok)
}

func TestSplitLines(t *testing.T) {
	got := splitLines([]byte("\xef\xbb\xbfa\r\nb\n\nc\n"))
	assert.Equal(t, []string{"a", "b", "", "c"}, got)
}
