package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sebasr/avt-ingest/internal/clock"
	"github.com/sebasr/avt-ingest/internal/metrics"
	"github.com/sebasr/avt-ingest/internal/models"
)

var (
	// ErrQueueFull is returned when a job is submitted while the queue is full
	ErrQueueFull = errors.New("ingestion queue is full")
	// ErrJobNotFound is returned for unknown job IDs
	ErrJobNotFound = errors.New("job not found")
)

// maxFinishedJobs bounds how many finished jobs stay queryable
const maxFinishedJobs = 256

// JobStatus is the lifecycle state of a job
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is one request to ingest a vehicle's inventory
type Job struct {
	ID          uuid.UUID             `json:"id"`
	Vehicle     string                `json:"vehicle"`
	Status      JobStatus             `json:"status"`
	SubmittedAt time.Time             `json:"submittedAt"`
	StartedAt   *time.Time            `json:"startedAt,omitempty"`
	FinishedAt  *time.Time            `json:"finishedAt,omitempty"`
	Results     []models.IngestResult `json:"results,omitempty"`
	Error       string                `json:"error,omitempty"`
}

// VehicleIngester ingests everything available for one vehicle
type VehicleIngester interface {
	IngestVehicle(ctx context.Context, name string, orgID uuid.UUID) ([]models.IngestResult, error)
}

// Worker drains a bounded job queue with a single consumer, so at most one
// ingestion runs at a time
type Worker struct {
	ingester VehicleIngester
	orgID    uuid.UUID
	queue    chan uuid.UUID
	metrics  *metrics.Metrics
	clock    clock.Clock
	logger   *slog.Logger

	mu       sync.Mutex
	jobs     map[uuid.UUID]*Job
	finished []uuid.UUID
}

// NewWorker creates a worker with room for queueSize pending jobs
func NewWorker(ingester VehicleIngester, orgID uuid.UUID, queueSize int, m *metrics.Metrics, clk clock.Clock, logger *slog.Logger) *Worker {
	if queueSize <= 0 {
		queueSize = 1
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		ingester: ingester,
		orgID:    orgID,
		queue:    make(chan uuid.UUID, queueSize),
		metrics:  m,
		clock:    clk,
		logger:   logger,
		jobs:     make(map[uuid.UUID]*Job),
	}
}

// Submit queues a job for the vehicle without blocking
func (w *Worker) Submit(vehicle string) (Job, error) {
	job := &Job{
		ID:          uuid.New(),
		Vehicle:     vehicle,
		Status:      JobQueued,
		SubmittedAt: w.clock.Now(),
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case w.queue <- job.ID:
	default:
		return Job{}, ErrQueueFull
	}
	w.jobs[job.ID] = job
	w.metrics.SetQueueLength(len(w.queue))

	w.logger.Info("job queued", "job_id", job.ID, "vehicle", vehicle)
	return *job, nil
}

// Job returns a snapshot of a job
func (w *Worker) Job(id uuid.UUID) (Job, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	job, ok := w.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return snapshot(job), nil
}

// Run processes jobs until ctx is cancelled
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-w.queue:
			w.metrics.SetQueueLength(len(w.queue))
			w.process(ctx, id)
		}
	}
}

func (w *Worker) process(ctx context.Context, id uuid.UUID) {
	w.mu.Lock()
	job, ok := w.jobs[id]
	if !ok {
		w.mu.Unlock()
		return
	}
	now := w.clock.Now()
	job.Status = JobRunning
	job.StartedAt = &now
	vehicle := job.Vehicle
	w.mu.Unlock()

	results, err := w.ingester.IngestVehicle(ctx, vehicle, w.orgID)

	w.mu.Lock()
	defer w.mu.Unlock()

	done := w.clock.Now()
	job.FinishedAt = &done
	job.Results = results
	if err != nil {
		job.Status = JobFailed
		job.Error = err.Error()
		w.logger.Error("job failed", "job_id", id, "vehicle", vehicle, "error", err)
	} else {
		job.Status = JobSucceeded
		w.logger.Info("job finished", "job_id", id, "vehicle", vehicle, "candidates", len(results))
	}
	w.retire(id)
}

// retire remembers a finished job and forgets the oldest beyond the limit.
// Callers hold mu.
func (w *Worker) retire(id uuid.UUID) {
	w.finished = append(w.finished, id)
	for len(w.finished) > maxFinishedJobs {
		delete(w.jobs, w.finished[0])
		w.finished = w.finished[1:]
	}
}

func snapshot(j *Job) Job {
	out := *j
	if j.Results != nil {
		out.Results = make([]models.IngestResult, len(j.Results))
		copy(out.Results, j.Results)
	}
	return out
}
