// Package pgstore provides a PostgreSQL implementation of monitor.Store.
package pgstore

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/pulsewatch/internal/monitor"
)

var tracer = otel.Tracer("github.com/linnemanlabs/pulsewatch/internal/monitor/pgstore")

//go:embed schema.sql
var schema string

// Store persists alert records in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store over the given pool.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const alertColumns = `record_id, alert_id, subject_id, kind, severity, vital_kind,
	vital_value, threshold, message, alert_ts, acknowledged, created_at, acknowledged_at`

// Save inserts one alert record and returns its store-assigned record ID.
func (s *Store) Save(ctx context.Context, rec *monitor.Record) (string, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Save", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	recordID := ulid.Make().String()
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO alerts (
			record_id, alert_id, subject_id, kind, severity, vital_kind,
			vital_value, threshold, message, alert_ts, acknowledged, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		recordID, rec.ID, rec.SubjectID, string(rec.Kind), string(rec.Severity), string(rec.VitalKind),
		rec.VitalValue, rec.Threshold, rec.Message, rec.Timestamp, rec.Acknowledged, createdAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("insert alert: %w", err)
	}
	return recordID, nil
}

// Query returns up to limit records for a subject, newest first.
func (s *Store) Query(ctx context.Context, subjectID string, limit int) ([]monitor.Record, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Query", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + alertColumns + ` FROM alerts WHERE subject_id = $1 ORDER BY alert_ts DESC LIMIT $2`
	rows, err := s.pool.Query(ctx, query, subjectID, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var recs []monitor.Record
	for rows.Next() {
		rec, err := scanAlertRow(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return recs, nil
}

// Acknowledge marks the record with the given alert ID as acknowledged,
// stamping acknowledged_at. It reports whether a row matched.
func (s *Store) Acknowledge(ctx context.Context, alertID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Acknowledge", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPDATE"),
	))
	defer span.End()

	tag, err := s.pool.Exec(ctx,
		`UPDATE alerts SET acknowledged = TRUE, acknowledged_at = now() WHERE alert_id = $1`,
		alertID,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("acknowledge alert: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Connected reports whether the pool can reach the database.
func (s *Store) Connected(ctx context.Context) bool {
	return s.pool.Ping(ctx) == nil
}

func scanAlertRow(row pgx.Row) (*monitor.Record, error) {
	var (
		rec            monitor.Record
		kind           string
		severity       string
		vitalKind      string
		acknowledgedAt *time.Time
	)

	err := row.Scan(
		&rec.RecordID, &rec.ID, &rec.SubjectID, &kind, &severity, &vitalKind,
		&rec.VitalValue, &rec.Threshold, &rec.Message, &rec.Timestamp, &rec.Acknowledged,
		&rec.CreatedAt, &acknowledgedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	rec.Kind = monitor.Kind(kind)
	rec.Severity = monitor.Severity(severity)
	rec.VitalKind = monitor.VitalKind(vitalKind)
	rec.AcknowledgedAt = acknowledgedAt
	return &rec, nil
}
