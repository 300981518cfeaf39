// Package ingest persists session candidates: it loads and aligns their
// streams, drops duplicates, writes samples and triggers event generation.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sebasr/avt-ingest/internal/inventory"
	"github.com/sebasr/avt-ingest/internal/metrics"
	"github.com/sebasr/avt-ingest/internal/models"
	"github.com/sebasr/avt-ingest/internal/parser"
	"github.com/sebasr/avt-ingest/internal/repository"
	"github.com/sebasr/avt-ingest/internal/synchronizer"
)

var (
	// ErrMissingRequiredStream is returned when a candidate has no inertial file
	ErrMissingRequiredStream = errors.New("missing required stream")
	// ErrUnresolvedVehicle is returned when the vehicle name is unknown
	ErrUnresolvedVehicle = errors.New("unresolved vehicle")
	// ErrPersistence wraps storage failures
	ErrPersistence = errors.New("persistence failure")
	// ErrNoSamples is returned when none of the candidate's files held samples
	ErrNoSamples = errors.New("candidate has no samples")
)

// numberAttempts bounds retries when another writer takes the session number
const numberAttempts = 3

// FileLoader loads and parses one raw file
type FileLoader interface {
	Load(ctx context.Context, file models.RawFile) (*parser.Parsed, error)
}

// CandidateSegmenter groups a vehicle's files into session candidates
type CandidateSegmenter interface {
	Segment(ctx context.Context, vehicleID string, files []models.RawFile) ([]models.SessionCandidate, error)
}

// EventGenerator derives and stores downstream events for a new session
type EventGenerator interface {
	Generate(ctx context.Context, sessionID uuid.UUID, inertial []models.InertialSample, gps []models.GPSample, engine []models.EngineSample) (int, error)
}

// Options tunes the ingestor
type Options struct {
	BatchSize      int
	DedupTolerance time.Duration
	SyncThreshold  time.Duration
}

// DefaultOptions returns the production settings
func DefaultOptions() Options {
	return Options{
		BatchSize:      1000,
		DedupTolerance: 5 * time.Minute,
		SyncThreshold:  synchronizer.DefaultThreshold,
	}
}

// Dependencies are the collaborators of an Ingestor. Events and Metrics may be nil.
type Dependencies struct {
	Vehicles  repository.VehicleRepository
	Sessions  repository.SessionRepository
	Inventory inventory.FileInventory
	Segmenter CandidateSegmenter
	Loader    FileLoader
	Events    EventGenerator
	Metrics   *metrics.Metrics
}

// Ingestor turns session candidates into stored sessions
type Ingestor struct {
	deps   Dependencies
	opts   Options
	logger *slog.Logger
}

// New creates an Ingestor. Zero option fields take their defaults.
func New(deps Dependencies, opts Options, logger *slog.Logger) *Ingestor {
	def := DefaultOptions()
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.DedupTolerance <= 0 {
		opts.DedupTolerance = def.DedupTolerance
	}
	if opts.SyncThreshold <= 0 {
		opts.SyncThreshold = def.SyncThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{deps: deps, opts: opts, logger: logger}
}

// streams holds the loaded samples of one candidate
type streams struct {
	gps      []models.GPSample
	inertial []models.InertialSample
	engine   []models.EngineSample
	beacon   []models.BeaconSample
}

func (s *streams) span() (models.TimeRange, bool) {
	ts := make([]time.Time, 0, len(s.gps)+len(s.inertial)+len(s.engine)+len(s.beacon))
	for _, x := range s.gps {
		ts = append(ts, x.Timestamp)
	}
	for _, x := range s.inertial {
		ts = append(ts, x.Timestamp)
	}
	for _, x := range s.engine {
		ts = append(ts, x.Timestamp)
	}
	for _, x := range s.beacon {
		ts = append(ts, x.Timestamp)
	}
	return parser.SpanOf(ts)
}

// Ingest processes one candidate. Failures are reported in the result, never
// returned or panicked.
func (i *Ingestor) Ingest(ctx context.Context, vehicle *models.Vehicle, candidate models.SessionCandidate) models.IngestResult {
	started := time.Now()
	if vehicle == nil {
		result := models.NewIngestResult(candidate.VehicleID)
		result.Fail(fmt.Errorf("%w: %s", ErrUnresolvedVehicle, candidate.VehicleID), false)
		i.deps.Metrics.Session(metrics.OutcomeFailed)
		i.logger.Error("candidate failed", "vehicle", candidate.VehicleID, "error", result.Error)
		return *result
	}
	result := models.NewIngestResult(vehicle.Name)
	result.Warnings = append(result.Warnings, candidate.Warnings...)

	outcome := i.ingest(ctx, vehicle, candidate, result)

	i.deps.Metrics.Session(outcome)
	i.deps.Metrics.ObserveDuration(time.Since(started))

	log := i.logger.With("vehicle", vehicle.Name, "start", candidate.TimeRange.Start)
	switch outcome {
	case metrics.OutcomeFailed:
		log.Error("candidate failed", "error", result.Error, "retryable", result.Retryable)
	case metrics.OutcomeSkipped:
		log.Info("candidate skipped as duplicate", "duplicate_of", result.DuplicateOf)
	default:
		log.Info("session ingested",
			"session_id", result.SessionID,
			"session_number", result.SessionNumber,
			"events", result.EventsGenerated)
	}

	return *result
}

func (i *Ingestor) ingest(ctx context.Context, vehicle *models.Vehicle, candidate models.SessionCandidate, result *models.IngestResult) string {
	if err := ctx.Err(); err != nil {
		result.Fail(err, true)
		return metrics.OutcomeFailed
	}

	if !candidate.HasStream(models.StreamInertial) {
		result.Fail(fmt.Errorf("%w: %s", ErrMissingRequiredStream, models.StreamInertial), false)
		return metrics.OutcomeFailed
	}

	data, err := i.load(ctx, candidate, result)
	if err != nil {
		result.Fail(err, false)
		return metrics.OutcomeFailed
	}

	var shift time.Duration
	data.gps, data.inertial, shift = synchronizer.SynchronizeWithin(data.gps, data.inertial, i.opts.SyncThreshold)
	if shift != 0 {
		result.Warn(fmt.Sprintf("inertial stream shifted by %s to match GPS", shift))
	}

	span, ok := data.span()
	if !ok {
		result.Fail(ErrNoSamples, false)
		return metrics.OutcomeFailed
	}

	existing, err := i.deps.Sessions.FindOverlapping(ctx, vehicle.ID, span.Start, span.End, i.opts.DedupTolerance)
	if err != nil {
		result.Fail(fmt.Errorf("%w: find overlapping session: %w", ErrPersistence, err), true)
		return metrics.OutcomeFailed
	}
	if existing != nil {
		result.Success = true
		result.Skipped = true
		result.DuplicateOf = &existing.ID
		result.SessionNumber = existing.SessionNumber
		return metrics.OutcomeSkipped
	}

	session, err := i.createSession(ctx, vehicle, span)
	if err != nil {
		result.Fail(fmt.Errorf("%w: create session: %w", ErrPersistence, err), true)
		return metrics.OutcomeFailed
	}
	result.SessionID = &session.ID
	result.SessionNumber = session.SessionNumber

	// The session row is committed; a rerun would skip it as a duplicate
	if err := i.insertAll(ctx, session.ID, data, result); err != nil {
		result.Warn(fmt.Sprintf("session %d kept with partial samples", session.SessionNumber))
		result.Fail(err, false)
		return metrics.OutcomeFailed
	}

	if len(data.inertial) > 0 && i.deps.Events != nil {
		n, err := i.deps.Events.Generate(ctx, session.ID, data.inertial, data.gps, data.engine)
		if err != nil {
			i.logger.Warn("event generation failed", "session_id", session.ID, "error", err)
			result.Warn(fmt.Sprintf("stability event generation failed: %v", err))
		} else {
			result.EventsGenerated = n
		}
	}

	result.Success = true
	return metrics.OutcomeCreated
}

// load parses every file of the candidate. Only an inertial failure is fatal.
func (i *Ingestor) load(ctx context.Context, candidate models.SessionCandidate, result *models.IngestResult) (*streams, error) {
	data := &streams{}
	for _, stream := range models.AllStreams() {
		file, ok := candidate.Files[stream]
		if !ok {
			continue
		}

		parsed, err := i.deps.Loader.Load(ctx, file)
		if err != nil {
			if stream == models.StreamInertial {
				return nil, fmt.Errorf("load %s: %w", stream, err)
			}
			i.logger.Warn("stream not loaded", "stream", stream, "file", file.Path, "error", err)
			result.Warn(fmt.Sprintf("%s file %s not loaded: %v", stream, file.Path, err))
			continue
		}

		result.Discarded[stream] = len(parsed.Discards)
		i.deps.Metrics.Discarded(stream, parsed.DiscardCounts())
		for _, w := range parsed.Warnings {
			result.Warn(fmt.Sprintf("%s: %s", stream, w))
		}

		switch stream {
		case models.StreamGPS:
			data.gps = parsed.GPS
		case models.StreamInertial:
			data.inertial = parsed.Inertial
		case models.StreamEngine:
			data.engine = parsed.Engine
		case models.StreamBeacon:
			data.beacon = parsed.Beacon
		}
	}
	return data, nil
}

// createSession assigns the next number and stores the session, retrying
// when a concurrent writer took the number first
func (i *Ingestor) createSession(ctx context.Context, vehicle *models.Vehicle, span models.TimeRange) (*models.Session, error) {
	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		var number int
		number, err = i.deps.Sessions.NextSessionNumber(ctx, vehicle.ID)
		if err != nil {
			return nil, err
		}

		session := &models.Session{
			VehicleID:      vehicle.ID,
			OrganizationID: vehicle.OrganizationID,
			StartTime:      span.Start,
			EndTime:        span.End,
			SessionNumber:  number,
		}
		err = i.deps.Sessions.Create(ctx, session)
		if err == nil {
			i.logger.Debug("session created",
				"session_id", session.ID,
				"session_number", number,
				"duration", session.Duration())
			return session, nil
		}
		if !errors.Is(err, repository.ErrSessionNumberTaken) {
			return nil, err
		}
	}
	return nil, err
}

func (i *Ingestor) insertAll(ctx context.Context, sessionID uuid.UUID, data *streams, result *models.IngestResult) error {
	inserts := []struct {
		stream models.StreamType
		run    func() (int64, error)
	}{
		{models.StreamGPS, func() (int64, error) {
			return insertChunks(ctx, sessionID, data.gps, i.opts.BatchSize, i.deps.Sessions.InsertGPSSamples)
		}},
		{models.StreamInertial, func() (int64, error) {
			return insertChunks(ctx, sessionID, data.inertial, i.opts.BatchSize, i.deps.Sessions.InsertInertialSamples)
		}},
		{models.StreamEngine, func() (int64, error) {
			return insertChunks(ctx, sessionID, data.engine, i.opts.BatchSize, i.deps.Sessions.InsertEngineSamples)
		}},
		{models.StreamBeacon, func() (int64, error) {
			return insertChunks(ctx, sessionID, data.beacon, i.opts.BatchSize, i.deps.Sessions.InsertBeaconSamples)
		}},
	}

	for _, ins := range inserts {
		n, err := ins.run()
		result.Inserted[ins.stream] = n
		i.deps.Metrics.SamplesInserted(ins.stream, n)
		if err != nil {
			return fmt.Errorf("%w: insert %s samples: %w", ErrPersistence, ins.stream, err)
		}
	}
	return nil
}

// insertChunks writes samples in slices of at most size and sums the rows
// actually inserted
func insertChunks[T any](ctx context.Context, sessionID uuid.UUID, samples []T, size int, insert func(context.Context, uuid.UUID, []T) (int64, error)) (int64, error) {
	var total int64
	for start := 0; start < len(samples); start += size {
		end := min(start+size, len(samples))
		n, err := insert(ctx, sessionID, samples[start:end])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
