// Package events derives stability events from a session's inertial stream.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sebasr/avt-ingest/internal/models"
	"github.com/sebasr/avt-ingest/internal/repository"
)

// Severity bounds on the minimum stability index of an event
const (
	CriticalBelow = 0.2
	ModerateBelow = 0.35
)

// DefaultThreshold is the stability index under which a sample is unstable
const DefaultThreshold = 0.5

// MaxPositionGap is how far the nearest fix may be from an event start for
// its position to be attached
const MaxPositionGap = 10 * time.Second

// ThresholdGenerator turns runs of unstable inertial samples into events
type ThresholdGenerator struct {
	repo      repository.EventRepository
	threshold float64
	logger    *slog.Logger
}

// NewThresholdGenerator creates a generator. A threshold outside (0, 1]
// falls back to DefaultThreshold.
func NewThresholdGenerator(repo repository.EventRepository, threshold float64, logger *slog.Logger) *ThresholdGenerator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ThresholdGenerator{repo: repo, threshold: threshold, logger: logger}
}

// Generate detects and stores the events of one session, returning how many
// were written
func (g *ThresholdGenerator) Generate(ctx context.Context, sessionID uuid.UUID, inertial []models.InertialSample, gps []models.GPSample, engine []models.EngineSample) (int, error) {
	events := Detect(sessionID, inertial, g.threshold)
	if len(events) == 0 {
		return 0, nil
	}

	fixes := sortedFixes(gps)
	frames := sortedFrames(engine)
	for i := range events {
		attachContext(&events[i], fixes, frames)
	}

	n, err := g.repo.InsertStabilityEvents(ctx, events)
	if err != nil {
		return 0, fmt.Errorf("store stability events: %w", err)
	}

	g.logger.Info("stability events generated",
		"session_id", sessionID,
		"detected", len(events),
		"stored", n)

	return int(n), nil
}

// Detect groups consecutive samples whose stability index is below threshold.
// Samples must be in time order.
func Detect(sessionID uuid.UUID, inertial []models.InertialSample, threshold float64) []models.StabilityEvent {
	var (
		events []models.StabilityEvent
		open   *models.StabilityEvent
	)

	for _, s := range inertial {
		if s.StabilityIndex >= threshold {
			if open != nil {
				events = append(events, finish(*open))
				open = nil
			}
			continue
		}
		if open == nil {
			open = &models.StabilityEvent{
				ID:                uuid.New(),
				SessionID:         sessionID,
				Start:             s.Timestamp,
				End:               s.Timestamp,
				MinStabilityIndex: s.StabilityIndex,
			}
			continue
		}
		open.End = s.Timestamp
		if s.StabilityIndex < open.MinStabilityIndex {
			open.MinStabilityIndex = s.StabilityIndex
		}
	}
	if open != nil {
		events = append(events, finish(*open))
	}
	return events
}

// Classify maps a minimum stability index to a severity
func Classify(minIndex float64) string {
	switch {
	case minIndex < CriticalBelow:
		return models.SeverityCritical
	case minIndex < ModerateBelow:
		return models.SeverityModerate
	}
	return models.SeverityLight
}

func finish(e models.StabilityEvent) models.StabilityEvent {
	e.Severity = Classify(e.MinStabilityIndex)
	return e
}

func sortedFixes(gps []models.GPSample) []models.GPSample {
	out := make([]models.GPSample, len(gps))
	copy(out, gps)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func sortedFrames(engine []models.EngineSample) []models.EngineSample {
	out := make([]models.EngineSample, len(engine))
	copy(out, engine)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// attachContext sets position and speed from the nearest GPS fix. Speed
// falls back to the engine bus when no fix is close enough.
func attachContext(e *models.StabilityEvent, fixes []models.GPSample, frames []models.EngineSample) {
	if i, ok := nearestIndex(len(fixes), func(k int) time.Time { return fixes[k].Timestamp }, e.Start); ok {
		lat, lon, speed := fixes[i].Latitude, fixes[i].Longitude, fixes[i].SpeedKmh
		e.Latitude, e.Longitude, e.SpeedKmh = &lat, &lon, &speed
		return
	}
	if i, ok := nearestIndex(len(frames), func(k int) time.Time { return frames[k].Timestamp }, e.Start); ok {
		speed := frames[i].VehicleSpeedKmh
		e.SpeedKmh = &speed
	}
}

// nearestIndex finds the sample closest to t within MaxPositionGap
func nearestIndex(n int, at func(int) time.Time, t time.Time) (int, bool) {
	if n == 0 {
		return 0, false
	}
	i := sort.Search(n, func(k int) bool { return !at(k).Before(t) })

	best, bestDist := -1, time.Duration(0)
	for _, k := range []int{i - 1, i} {
		if k < 0 || k >= n {
			continue
		}
		d := at(k).Sub(t)
		if d < 0 {
			d = -d
		}
		if best < 0 || d < bestDist {
			best, bestDist = k, d
		}
	}
	if bestDist > MaxPositionGap {
		return 0, false
	}
	return best, true
}
