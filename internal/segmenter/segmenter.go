// Package segmenter groups a vehicle's raw files into session candidates by
// overlapping time spans.
package segmenter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/sebasr/avt-ingest/internal/models"
	"github.com/sebasr/avt-ingest/internal/parser"
)

const (
	// maxGPSOffsetHours bounds the whole-hour shifts tried on GPS fragments
	maxGPSOffsetHours = 3
	// offsetAcceptance is how close a shifted GPS start must land to an
	// inertial start for the shift to be applied
	offsetAcceptance = time.Hour
)

// FileLoader loads and parses one raw file
type FileLoader interface {
	Load(ctx context.Context, file models.RawFile) (*parser.Parsed, error)
}

// Segmenter builds session candidates from raw files
type Segmenter struct {
	loader FileLoader
	logger *slog.Logger
}

// New creates a Segmenter
func New(loader FileLoader, logger *slog.Logger) *Segmenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Segmenter{loader: loader, logger: logger}
}

// Segment loads every file, derives its time fragment and buckets the
// fragments into candidates. Files that cannot be read or hold no samples are
// skipped. Only context cancellation is returned as an error.
func (s *Segmenter) Segment(ctx context.Context, vehicleID string, files []models.RawFile) ([]models.SessionCandidate, error) {
	fragments := make([]models.TimeFragment, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frag, ok := s.fragment(ctx, f)
		if ok {
			fragments = append(fragments, frag)
		}
	}

	DetectGPSOffsets(fragments)

	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].Start.Before(fragments[j].Start)
	})

	groups := Bucket(fragments)
	candidates := make([]models.SessionCandidate, 0, len(groups))
	for _, g := range groups {
		candidates = append(candidates, buildCandidate(vehicleID, g))
	}

	s.logger.Info("files segmented",
		"vehicle", vehicleID,
		"files", len(files),
		"fragments", len(fragments),
		"candidates", len(candidates))

	return candidates, nil
}

func (s *Segmenter) fragment(ctx context.Context, f models.RawFile) (models.TimeFragment, bool) {
	parsed, err := s.loader.Load(ctx, f)
	if err != nil {
		s.logger.Warn("skipping unreadable file", "file", f.Path, "stream", f.Stream, "error", err)
		return models.TimeFragment{}, false
	}
	span, ok := parsed.Span()
	if !ok {
		s.logger.Warn("skipping file without samples", "file", f.Path, "stream", f.Stream)
		return models.TimeFragment{}, false
	}
	return models.TimeFragment{
		Stream:     f.Stream,
		SourceFile: f,
		Start:      span.Start,
		End:        span.End,
	}, true
}

// DetectGPSOffsets looks for a whole-hour clock offset on every GPS fragment.
// Each shift in 0..3h is scored by the distance from the shifted start to the
// nearest inertial start; the best shift is applied in place when that
// distance is under an hour.
func DetectGPSOffsets(fragments []models.TimeFragment) {
	var inertialStarts []time.Time
	for _, f := range fragments {
		if f.Stream == models.StreamInertial {
			inertialStarts = append(inertialStarts, f.Start)
		}
	}
	if len(inertialStarts) == 0 {
		return
	}

	for i := range fragments {
		f := &fragments[i]
		if f.Stream != models.StreamGPS {
			continue
		}

		bestHours := 0
		bestDist := nearest(f.Start, inertialStarts)
		for h := 1; h <= maxGPSOffsetHours; h++ {
			d := nearest(f.Start.Add(time.Duration(h)*time.Hour), inertialStarts)
			if d < bestDist {
				bestHours, bestDist = h, d
			}
		}

		if bestHours == 0 || bestDist >= offsetAcceptance {
			continue
		}
		shift := time.Duration(bestHours) * time.Hour
		f.Start = f.Start.Add(shift)
		f.End = f.End.Add(shift)
		f.DetectedOffsetHours = bestHours
	}
}

func nearest(t time.Time, candidates []time.Time) time.Duration {
	best := time.Duration(-1)
	for _, c := range candidates {
		d := t.Sub(c)
		if d < 0 {
			d = -d
		}
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}

// Bucket assigns start-ordered fragments to groups in a single pass: a
// fragment joins the first group holding any member it overlaps, otherwise it
// opens a new group. Groups are never merged afterwards.
func Bucket(fragments []models.TimeFragment) [][]models.TimeFragment {
	var groups [][]models.TimeFragment
	for _, f := range fragments {
		placed := false
		for gi, g := range groups {
			if overlapsAny(f, g) {
				groups[gi] = append(groups[gi], f)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []models.TimeFragment{f})
		}
	}
	return groups
}

func overlapsAny(f models.TimeFragment, group []models.TimeFragment) bool {
	r := f.Range()
	for _, m := range group {
		if r.Overlaps(m.Range()) {
			return true
		}
	}
	return false
}

func buildCandidate(vehicleID string, group []models.TimeFragment) models.SessionCandidate {
	c := models.SessionCandidate{
		VehicleID: vehicleID,
		Files:     make(map[models.StreamType]models.RawFile),
	}

	for _, f := range group {
		if prev, dup := c.Files[f.Stream]; dup {
			c.Warnings = append(c.Warnings, fmt.Sprintf("multiple %s files overlap, using %s over %s",
				f.Stream, f.SourceFile.Path, prev.Path))
		}
		c.Files[f.Stream] = f.SourceFile
		c.TimeRange = c.TimeRange.Extend(f.Range())
		if f.DetectedOffsetHours != 0 {
			c.Warnings = append(c.Warnings, fmt.Sprintf("GPS clock offset of +%dh corrected in %s",
				f.DetectedOffsetHours, f.SourceFile.Path))
		}
	}

	for _, s := range models.AllStreams() {
		if !c.HasStream(s) {
			c.MissingStreams = append(c.MissingStreams, s)
		}
	}
	if len(c.MissingStreams) > 0 {
		names := make([]string, len(c.MissingStreams))
		for i, s := range c.MissingStreams {
			names[i] = s.String()
		}
		c.Warnings = append(c.Warnings, "incomplete session, missing "+strings.Join(names, ", "))
	}

	return c
}
