// Package synchronizer aligns the inertial stream to the GPS clock.
package synchronizer

import (
	"time"

	"github.com/sebasr/avt-ingest/internal/models"
)

// DefaultThreshold is the largest start offset left uncorrected
const DefaultThreshold = 5 * time.Minute

// Synchronize shifts inertial samples onto the GPS clock when the two streams
// start more than DefaultThreshold apart. GPS is never modified.
func Synchronize(gps []models.GPSample, inertial []models.InertialSample) ([]models.GPSample, []models.InertialSample, time.Duration) {
	return SynchronizeWithin(gps, inertial, DefaultThreshold)
}

// SynchronizeWithin is Synchronize with an explicit threshold. The returned
// duration is the shift applied to every inertial timestamp, zero when the
// streams were left alone. Input slices are not mutated.
func SynchronizeWithin(gps []models.GPSample, inertial []models.InertialSample, threshold time.Duration) ([]models.GPSample, []models.InertialSample, time.Duration) {
	if len(gps) == 0 || len(inertial) == 0 {
		return gps, inertial, 0
	}

	offset := inertial[0].Timestamp.Sub(gps[0].Timestamp)
	if abs(offset) <= threshold {
		return gps, inertial, 0
	}

	shift := -offset
	shifted := make([]models.InertialSample, len(inertial))
	for i, s := range inertial {
		s.Timestamp = s.Timestamp.Add(shift)
		shifted[i] = s
	}
	return gps, shifted, shift
}

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
