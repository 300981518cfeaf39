package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/sebasr/avt-ingest/internal/models"
)

// PostgresEventRepository implements EventRepository using PostgreSQL
type PostgresEventRepository struct {
	db *sql.DB
}

// NewPostgresEventRepository creates a new PostgreSQL event repository
func NewPostgresEventRepository(db *sql.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// InsertStabilityEvents stores events in one statement
func (r *PostgresEventRepository) InsertStabilityEvents(ctx context.Context, events []models.StabilityEvent) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}

	cols := []string{"id", "session_id", "start_time", "end_time", "min_stability_index", "severity", "latitude", "longitude", "speed_kmh"}
	query, args := buildInsert("stability_events", cols, len(events), func(i int) []any {
		e := events[i]
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		return []any{e.ID, e.SessionID, e.Start, e.End, e.MinStabilityIndex, e.Severity, e.Latitude, e.Longitude, e.SpeedKmh}
	}, "ON CONFLICT (session_id, start_time) DO NOTHING")

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert stability events: %w", err)
	}
	return res.RowsAffected()
}

// ListBySession returns a session's events in time order
func (r *PostgresEventRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.StabilityEvent, error) {
	query := `
		SELECT id, session_id, start_time, end_time, min_stability_index, severity, latitude, longitude, speed_kmh
		FROM stability_events
		WHERE session_id = $1
		ORDER BY start_time
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stability events: %w", err)
	}
	defer rows.Close()

	var events []*models.StabilityEvent
	for rows.Next() {
		var e models.StabilityEvent
		var lat, lon, speed sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Start, &e.End, &e.MinStabilityIndex, &e.Severity, &lat, &lon, &speed); err != nil {
			return nil, fmt.Errorf("failed to scan stability event: %w", err)
		}
		e.Latitude = nullFloat(lat)
		e.Longitude = nullFloat(lon)
		e.SpeedKmh = nullFloat(speed)
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stability events: %w", err)
	}
	return events, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
