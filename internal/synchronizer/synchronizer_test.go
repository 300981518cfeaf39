package synchronizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebasr/avt-ingest/internal/models"
)

var t0 = time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)

func gpsAt(offsets ...time.Duration) []models.GPSample {
	out := make([]models.GPSample, len(offsets))
	for i, o := range offsets {
		out[i] = models.GPSample{Timestamp: t0.Add(o), Latitude: 40.4, Longitude: -3.7}
	}
	return out
}

func inertialAt(offsets ...time.Duration) []models.InertialSample {
	out := make([]models.InertialSample, len(offsets))
	for i, o := range offsets {
		out[i] = models.InertialSample{Timestamp: t0.Add(o), StabilityIndex: 0.9}
	}
	return out
}

func TestSynchronize_WithinThresholdIsNoop(t *testing.T) {
	gps := gpsAt(0, time.Second)
	inertial := inertialAt(4*time.Minute, 4*time.Minute+time.Second)

	g, in, shift := Synchronize(gps, inertial)

	assert.Zero(t, shift)
	assert.Equal(t, gps, g)
	assert.Equal(t, inertial, in)
}

func TestSynchronize_ExactlyAtThresholdIsNoop(t *testing.T) {
	_, in, shift := Synchronize(gpsAt(0), inertialAt(-5*time.Minute))

	assert.Zero(t, shift)
	assert.Equal(t, t0.Add(-5*time.Minute), in[0].Timestamp)
}

func TestSynchronize_ShiftsInertialOntoGPS(t *testing.T) {
	gps := gpsAt(0, time.Second, 2*time.Second)
	inertial := inertialAt(2*time.Hour, 2*time.Hour+500*time.Millisecond, 2*time.Hour+3*time.Second)

	g, in, shift := Synchronize(gps, inertial)

	assert.Equal(t, -2*time.Hour, shift)
	assert.Equal(t, gps, g)
	require.Len(t, in, 3)
	assert.Equal(t, gps[0].Timestamp, in[0].Timestamp)

	// Spacing is preserved
	for i := 1; i < len(in); i++ {
		assert.Equal(t, inertial[i].Timestamp.Sub(inertial[i-1].Timestamp), in[i].Timestamp.Sub(in[i-1].Timestamp))
	}
	assert.Equal(t, 0.9, in[2].StabilityIndex)
}

func TestSynchronize_ShiftsForwardWhenInertialIsBehind(t *testing.T) {
	gps := gpsAt(time.Hour)
	inertial := inertialAt(0)

	_, in, shift := Synchronize(gps, inertial)

	assert.Equal(t, time.Hour, shift)
	assert.Equal(t, gps[0].Timestamp, in[0].Timestamp)
}

func TestSynchronize_DoesNotMutateInputs(t *testing.T) {
	gps := gpsAt(0)
	inertial := inertialAt(time.Hour, time.Hour+time.Second)
	before := append([]models.InertialSample(nil), inertial...)

	_, _, shift := Synchronize(gps, inertial)

	require.NotZero(t, shift)
	assert.Equal(t, before, inertial)
}

func TestSynchronize_EmptyStreams(t *testing.T) {
	inertial := inertialAt(time.Hour)

	_, in, shift := Synchronize(nil, inertial)
	assert.Zero(t, shift)
	assert.Equal(t, inertial, in)

	g, in, shift := Synchronize(gpsAt(0), nil)
	assert.Zero(t, shift)
	assert.Len(t, g, 1)
	assert.Empty(t, in)
}

func TestSynchronizeWithin_CustomThreshold(t *testing.T) {
	_, in, shift := SynchronizeWithin(gpsAt(0), inertialAt(30*time.Second), 10*time.Second)

	assert.Equal(t, -30*time.Second, shift)
	assert.Equal(t, t0, in[0].Timestamp)
}
