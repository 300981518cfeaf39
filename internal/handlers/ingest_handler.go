package handlers

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sebasr/avt-ingest/internal/ingest"
)

// vehicleName matches the vehicle codes used in log file names
var vehicleName = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// JobQueue accepts ingestion jobs and reports their state
type JobQueue interface {
	Submit(vehicle string) (ingest.Job, error)
	Job(id uuid.UUID) (ingest.Job, error)
}

// IngestHandler triggers ingestion jobs
type IngestHandler struct {
	jobs JobQueue
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(jobs JobQueue) *IngestHandler {
	return &IngestHandler{
		jobs: jobs,
	}
}

// Trigger queues an ingestion of the vehicle's inventory
// POST /api/v1/vehicles/:vehicle/ingest
func (h *IngestHandler) Trigger(c *gin.Context) {
	vehicle := c.Param("vehicle")
	if !vehicleName.MatchString(vehicle) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_vehicle",
			"message": "Vehicle name must be alphanumeric",
		})
		return
	}

	job, err := h.jobs.Submit(vehicle)
	if err != nil {
		if errors.Is(err, ingest.ErrQueueFull) {
			c.Header("Retry-After", "60")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "queue_full",
				"message": "Ingestion queue is full, try again later",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to queue ingestion",
		})
		return
	}

	c.Header("Location", "/api/v1/jobs/"+job.ID.String())
	c.JSON(http.StatusAccepted, job)
}

// GetJob returns the state of an ingestion job
// GET /api/v1/jobs/:id
func (h *IngestHandler) GetJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_id",
			"message": "Invalid job ID format",
		})
		return
	}

	job, err := h.jobs.Job(id)
	if err != nil {
		if errors.Is(err, ingest.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Job not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to retrieve job",
		})
		return
	}

	c.JSON(http.StatusOK, job)
}
