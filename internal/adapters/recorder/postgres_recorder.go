// Package recorder implements the save-hook offered finished results after
// resolution and enrichment. The storage engine is interchangeable: Postgres
// when DATABASE_URL is configured, a no-op otherwise.
package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"truck-route-service/internal/domain"
	"truck-route-service/internal/geometry"
	"truck-route-service/internal/ports"
)

// PostgresRecorder persists routes, traffic reports, and closure sets.
// Geometry is stored polyline-encoded at 1e5 to keep rows compact.
type PostgresRecorder struct {
	DB *sql.DB
}

func NewPostgresRecorder(db *sql.DB) *PostgresRecorder {
	return &PostgresRecorder{DB: db}
}

// InitSchema creates the recorder tables.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS recorded_routes (
			route_id TEXT PRIMARY KEY,
			source_provider TEXT NOT NULL,
			distance_meters DOUBLE PRECISION NOT NULL,
			duration_seconds DOUBLE PRECISION NOT NULL,
			toll_cost DOUBLE PRECISION NOT NULL,
			toll_currency TEXT NOT NULL,
			geometry_polyline TEXT NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS recorded_traffic (
			id BIGSERIAL PRIMARY KEY,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			congestion INTEGER NOT NULL,
			details JSONB,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS recorded_closures (
			closure_id TEXT NOT NULL,
			reason TEXT NOT NULL,
			center_lat DOUBLE PRECISION NOT NULL,
			center_lng DOUBLE PRECISION NOT NULL,
			tags JSONB,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (closure_id, recorded_at)
		);`,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

func (r *PostgresRecorder) RecordRoute(ctx context.Context, route *domain.CanonicalRoute) error {
	if r.DB == nil {
		return errors.New("record route: DB is nil")
	}
	if route == nil || len(route.Geometry) == 0 {
		return errors.New("record route: empty route")
	}

	encoded, err := geometry.Encode(route.Geometry, 5)
	if err != nil {
		return fmt.Errorf("record route: encode geometry: %w", err)
	}

	q := `
	INSERT INTO recorded_routes (
		route_id, source_provider, distance_meters, duration_seconds,
		toll_cost, toll_currency, geometry_polyline
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (route_id) DO NOTHING;
	`
	if _, err := r.DB.ExecContext(ctx, q,
		route.ID, string(route.Source), route.DistanceMeters, route.DurationSeconds,
		route.TollCost, route.TollCurrency, encoded,
	); err != nil {
		return fmt.Errorf("record route %s: %w", route.ID, err)
	}

	return nil
}

func (r *PostgresRecorder) RecordTraffic(ctx context.Context, center domain.GeoPoint, report ports.TrafficReport) error {
	if r.DB == nil {
		return errors.New("record traffic: DB is nil")
	}

	details, err := json.Marshal(report.Details)
	if err != nil {
		return fmt.Errorf("record traffic: encode details: %w", err)
	}

	q := `
	INSERT INTO recorded_traffic (lat, lng, congestion, details)
	VALUES ($1, $2, $3, $4);
	`
	if _, err := r.DB.ExecContext(ctx, q, center.Lat, center.Lng, report.Congestion, details); err != nil {
		return fmt.Errorf("record traffic: %w", err)
	}

	return nil
}

func (r *PostgresRecorder) RecordClosures(ctx context.Context, closures []domain.ClosureRecord) error {
	if r.DB == nil {
		return errors.New("record closures: DB is nil")
	}
	if len(closures) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record closures: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO recorded_closures (closure_id, reason, center_lat, center_lng, tags)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT DO NOTHING;
	`)
	if err != nil {
		return fmt.Errorf("record closures: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range closures {
		tags, err := json.Marshal(c.Tags)
		if err != nil {
			return fmt.Errorf("record closures: encode tags for %s: %w", c.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.Reason, c.Center.Lat, c.Center.Lng, tags); err != nil {
			return fmt.Errorf("record closures: insert %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record closures: commit tx: %w", err)
	}

	return nil
}
