package monitor

import "context"

// Store is the durable persistence interface for alert records. It is the
// long-lived owner of alert history; the live store is only a cache.
type Store interface {
	// Save persists one record and returns its store-assigned record ID.
	Save(ctx context.Context, rec *Record) (string, error)

	// Query returns up to limit records for a subject, newest first.
	Query(ctx context.Context, subjectID string, limit int) ([]Record, error)

	// Acknowledge marks the record with the given alert ID as acknowledged.
	// It reports whether a matching record existed.
	Acknowledge(ctx context.Context, alertID string) (bool, error)

	// Connected reports whether the store is reachable.
	Connected(ctx context.Context) bool
}

// AnalyticsSink receives every generated alert for monitoring and analytics.
// Writes are fire-and-forget; the caller logs failures and moves on.
type AnalyticsSink interface {
	Log(ctx context.Context, a *Alert) error
}
