package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebasr/avt-ingest/internal/ingest"
)

type stubQueue struct {
	submitted []string
	submitErr error
	jobs      map[uuid.UUID]ingest.Job
}

func (q *stubQueue) Submit(vehicle string) (ingest.Job, error) {
	if q.submitErr != nil {
		return ingest.Job{}, q.submitErr
	}
	q.submitted = append(q.submitted, vehicle)
	return ingest.Job{ID: uuid.New(), Vehicle: vehicle, Status: ingest.JobQueued}, nil
}

func (q *stubQueue) Job(id uuid.UUID) (ingest.Job, error) {
	job, ok := q.jobs[id]
	if !ok {
		return ingest.Job{}, ingest.ErrJobNotFound
	}
	return job, nil
}

func setupIngestRouter(q JobQueue) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewIngestHandler(q)

	r := gin.New()
	r.POST("/api/v1/vehicles/:vehicle/ingest", h.Trigger)
	r.GET("/api/v1/jobs/:id", h.GetJob)
	return r
}

func TestIngestHandler_Trigger(t *testing.T) {
	q := &stubQueue{}
	r := setupIngestRouter(q)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/vehicles/DOBACK024/ingest", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"DOBACK024"}, q.submitted)

	var job ingest.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, ingest.JobQueued, job.Status)
	assert.Equal(t, "/api/v1/jobs/"+job.ID.String(), w.Header().Get("Location"))
}

func TestIngestHandler_Trigger_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"invalid vehicle", "/api/v1/vehicles/DOBACK_024/ingest", nil, http.StatusBadRequest, "invalid_vehicle"},
		{"queue full", "/api/v1/vehicles/DOBACK024/ingest", ingest.ErrQueueFull, http.StatusServiceUnavailable, "queue_full"},
		{"unexpected", "/api/v1/vehicles/DOBACK024/ingest", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupIngestRouter(&stubQueue{submitErr: tt.err})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, tt.path, nil))

			assert.Equal(t, tt.wantCode, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantErr, body["error"])
		})
	}
}

func TestIngestHandler_GetJob(t *testing.T) {
	id := uuid.New()
	q := &stubQueue{jobs: map[uuid.UUID]ingest.Job{
		id: {ID: id, Vehicle: "DOBACK024", Status: ingest.JobSucceeded},
	}}
	r := setupIngestRouter(q)

	t.Run("found", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+id.String(), nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var job ingest.Job
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
		assert.Equal(t, ingest.JobSucceeded, job.Status)
	})

	t.Run("not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
