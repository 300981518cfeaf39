package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sebasr/avt-ingest/internal/models"
	"github.com/sebasr/avt-ingest/internal/repository"
)

const maxSessionsLimit = 500

// SessionHandler exposes stored sessions for operators
type SessionHandler struct {
	vehicles repository.VehicleRepository
	sessions repository.SessionRepository
	events   repository.EventRepository
	orgID    uuid.UUID
}

// NewSessionHandler creates a new session handler scoped to one organization
func NewSessionHandler(vehicles repository.VehicleRepository, sessions repository.SessionRepository, events repository.EventRepository, orgID uuid.UUID) *SessionHandler {
	return &SessionHandler{
		vehicles: vehicles,
		sessions: sessions,
		events:   events,
		orgID:    orgID,
	}
}

// SessionDetail is a session with its stability events
type SessionDetail struct {
	*models.Session
	Events []*models.StabilityEvent `json:"events"`
}

// ListSessions returns the vehicle's most recent sessions
// GET /api/v1/vehicles/:vehicle/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	vehicle := c.Param("vehicle")
	if !vehicleName.MatchString(vehicle) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_vehicle",
			"message": "Vehicle name must be alphanumeric",
		})
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxSessionsLimit {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_limit",
				"message": "Limit must be between 1 and 500",
			})
			return
		}
		limit = n
	}

	v, err := h.vehicles.Resolve(c.Request.Context(), vehicle, h.orgID)
	if err != nil {
		if errors.Is(err, repository.ErrVehicleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Vehicle not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to resolve vehicle",
		})
		return
	}

	sessions, err := h.sessions.ListByVehicle(c.Request.Context(), v.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to retrieve sessions",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vehicle":  v.Name,
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// GetSession returns one session and its stability events
// GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_id",
			"message": "Invalid session ID format",
		})
		return
	}

	session, err := h.sessions.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Session not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to retrieve session",
		})
		return
	}

	// Sessions of other organizations are reported as missing
	if session.OrganizationID != h.orgID {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Session not found",
		})
		return
	}

	events, err := h.events.ListBySession(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to retrieve events",
		})
		return
	}

	c.JSON(http.StatusOK, SessionDetail{Session: session, Events: events})
}
