// Package analytics ships generated alerts to ClickHouse for monitoring
// dashboards and offline analysis. Writes are best-effort: the alert engine
// logs a failure and moves on, it never blocks alert generation on the sink.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/linnemanlabs/pulsewatch/internal/monitor"
)

// Config holds ClickHouse connection settings.
type Config struct {
	// Addresses are the ClickHouse server addresses (host:port).
	Addresses []string

	// Database is the ClickHouse database name.
	Database string

	// Username and Password authenticate the connection.
	Username string
	Password string

	// DialTimeout is the connection timeout.
	DialTimeout time.Duration

	// RetentionDays is the TTL in days for alert event retention.
	RetentionDays int
}

// Sink writes alert events to ClickHouse.
type Sink struct {
	config Config
	db     *sql.DB
}

// NewSink creates a sink with defaults applied. Call Open before use.
func NewSink(config Config) *Sink {
	if config.DialTimeout == 0 {
		config.DialTimeout = 5 * time.Second
	}
	if config.RetentionDays == 0 {
		config.RetentionDays = 90
	}
	return &Sink{config: config}
}

// Open connects, verifies connectivity, and creates the events table.
func (s *Sink) Open(ctx context.Context) error {
	db := clickhouse.OpenDB(&clickhouse.Options{
		Addr: s.config.Addresses,
		Auth: clickhouse.Auth{
			Database: s.config.Database,
			Username: s.config.Username,
			Password: s.config.Password,
		},
		DialTimeout: s.config.DialTimeout,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	pingCtx, cancel := context.WithTimeout(ctx, s.config.DialTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping clickhouse: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS alert_events (
			alert_id String,
			subject_id String,
			kind LowCardinality(String),
			severity LowCardinality(String),
			vital_kind LowCardinality(String),
			vital_value Float64,
			threshold Float64,
			message String,
			timestamp DateTime64(3, 'UTC'),
			_date Date DEFAULT toDate(timestamp)
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMM(_date)
		ORDER BY (subject_id, severity, timestamp)
		TTL _date + INTERVAL %d DAY DELETE
		SETTINGS index_granularity = 8192
	`, s.config.RetentionDays)

	if _, err := db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create alert_events table: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the connection.
func (s *Sink) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping reports sink reachability for health checks.
func (s *Sink) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("clickhouse not open")
	}
	return s.db.PingContext(ctx)
}

// Log writes one alert event. It implements monitor.AnalyticsSink.
func (s *Sink) Log(ctx context.Context, a *monitor.Alert) error {
	if s.db == nil {
		return fmt.Errorf("clickhouse not open")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alert_events (
			alert_id, subject_id, kind, severity, vital_kind,
			vital_value, threshold, message, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID,
		a.SubjectID,
		string(a.Kind),
		string(a.Severity),
		string(a.VitalKind),
		a.VitalValue,
		a.Threshold,
		a.Message,
		a.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert alert event: %w", err)
	}
	return nil
}
