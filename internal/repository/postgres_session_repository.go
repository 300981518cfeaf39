package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sebasr/avt-ingest/internal/models"
)

const sessionColumns = "id, vehicle_id, organization_id, start_time, end_time, session_number, created_at"

// PostgresSessionRepository implements SessionRepository using PostgreSQL
type PostgresSessionRepository struct {
	db *sql.DB
}

// NewPostgresSessionRepository creates a new PostgreSQL session repository
func NewPostgresSessionRepository(db *sql.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

// FindOverlapping returns the earliest-numbered session whose bounds both
// match the candidate's within tolerance
func (r *PostgresSessionRepository) FindOverlapping(ctx context.Context, vehicleID uuid.UUID, start, end time.Time, tolerance time.Duration) (*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE vehicle_id = $1
		  AND start_time BETWEEN $2 AND $3
		  AND end_time BETWEEN $4 AND $5
		ORDER BY session_number
		LIMIT 1
	`

	s, err := scanSession(r.db.QueryRowContext(ctx, query, vehicleID,
		start.Add(-tolerance), start.Add(tolerance),
		end.Add(-tolerance), end.Add(tolerance)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up overlapping session: %w", err)
	}
	return s, nil
}

// NextSessionNumber returns 1 + the vehicle's highest session number
func (r *PostgresSessionRepository) NextSessionNumber(ctx context.Context, vehicleID uuid.UUID) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(session_number), 0) + 1 FROM sessions WHERE vehicle_id = $1`,
		vehicleID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next session number: %w", err)
	}
	return next, nil
}

// Create stores a new session
func (r *PostgresSessionRepository) Create(ctx context.Context, s *models.Session) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	query := `
		INSERT INTO sessions (id, vehicle_id, organization_id, start_time, end_time, session_number)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		s.ID, s.VehicleID, s.OrganizationID, s.StartTime, s.EndTime, s.SessionNumber,
	).Scan(&s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSessionNumberTaken
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// InsertGPSSamples writes one chunk of GPS samples
func (r *PostgresSessionRepository) InsertGPSSamples(ctx context.Context, sessionID uuid.UUID, samples []models.GPSample) (int64, error) {
	cols := []string{"session_id", "recorded_at", "latitude", "longitude", "altitude", "speed_kmh", "satellites", "hdop", "fix_quality", "heading"}
	return r.insertSamples(ctx, "gps_samples", cols, len(samples), func(i int) []any {
		s := samples[i]
		return []any{sessionID, s.Timestamp, s.Latitude, s.Longitude, s.Altitude, s.SpeedKmh, s.Satellites, s.HDOP, s.FixQuality, s.Heading}
	})
}

// InsertInertialSamples writes one chunk of inertial samples
func (r *PostgresSessionRepository) InsertInertialSamples(ctx context.Context, sessionID uuid.UUID, samples []models.InertialSample) (int64, error) {
	cols := []string{"session_id", "recorded_at", "ax", "ay", "az", "gx", "gy", "gz", "stability_index", "accel_magnitude"}
	return r.insertSamples(ctx, "inertial_samples", cols, len(samples), func(i int) []any {
		s := samples[i]
		return []any{sessionID, s.Timestamp, s.AX, s.AY, s.AZ, s.GX, s.GY, s.GZ, s.StabilityIndex, s.AccelMagnitude}
	})
}

// InsertEngineSamples writes one chunk of engine samples
func (r *PostgresSessionRepository) InsertEngineSamples(ctx context.Context, sessionID uuid.UUID, samples []models.EngineSample) (int64, error) {
	cols := []string{"session_id", "recorded_at", "engine_rpm", "vehicle_speed_kmh", "fuel_system_status"}
	return r.insertSamples(ctx, "engine_samples", cols, len(samples), func(i int) []any {
		s := samples[i]
		return []any{sessionID, s.Timestamp, s.EngineRPM, s.VehicleSpeedKmh, s.FuelSystemStatus}
	})
}

// InsertBeaconSamples writes one chunk of beacon samples
func (r *PostgresSessionRepository) InsertBeaconSamples(ctx context.Context, sessionID uuid.UUID, samples []models.BeaconSample) (int64, error) {
	cols := []string{"session_id", "recorded_at", "state"}
	return r.insertSamples(ctx, "beacon_samples", cols, len(samples), func(i int) []any {
		s := samples[i]
		return []any{sessionID, s.Timestamp, s.State}
	})
}

// insertSamples builds one multi-row INSERT that skips existing (session, instant) pairs
func (r *PostgresSessionRepository) insertSamples(ctx context.Context, table string, cols []string, n int, row func(i int) []any) (int64, error) {
	if n == 0 {
		return 0, nil
	}

	query, args := buildInsert(table, cols, n, row, "ON CONFLICT (session_id, recorded_at) DO NOTHING")
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count rows inserted into %s: %w", table, err)
	}
	return inserted, nil
}

// buildInsert renders INSERT INTO table (cols) VALUES ($1,...),(...) suffix
func buildInsert(table string, cols []string, n int, row func(i int) []any, suffix string) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, n*len(cols))
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(")
		for c := range cols {
			if c > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, "$%d", len(args)+c+1)
		}
		b.WriteString(")")
		args = append(args, row(i)...)
	}

	b.WriteString(" ")
	b.WriteString(suffix)
	return b.String(), args
}

// ListByVehicle returns the vehicle's sessions, newest first
func (r *PostgresSessionRepository) ListByVehicle(ctx context.Context, vehicleID uuid.UUID, limit int) ([]*models.Session, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE vehicle_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, vehicleID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}

	return sessions, nil
}

// GetByID retrieves a session by its UUID
func (r *PostgresSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var s models.Session
	err := row.Scan(
		&s.ID,
		&s.VehicleID,
		&s.OrganizationID,
		&s.StartTime,
		&s.EndTime,
		&s.SessionNumber,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
