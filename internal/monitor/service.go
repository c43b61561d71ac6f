package monitor

import (
	"context"
	"sort"
	"time"

	"github.com/linnemanlabs/go-core/log"
)

// Notifier delivers out-of-band notifications for generated alerts.
type Notifier interface {
	Send(ctx context.Context, a *Alert) error
}

// AnalyticsPinger reports analytics sink reachability.
type AnalyticsPinger interface {
	Ping(ctx context.Context) error
}

// Service is the business boundary for alert operations. It owns the rule
// engine, ID stamping, the live store, the dual-sink fan-out, and the
// merged read path. The poller and the HTTP layer both go through it.
type Service struct {
	engine    *RuleEngine
	idgen     *IDGenerator
	live      *LiveStore
	store     Store
	fanout    *FanoutWriter
	notifier  Notifier
	analytics AnalyticsPinger
	logger    log.Logger
	metrics   *Metrics
	now       func() time.Time
}

// ServiceOptions carries optional Service collaborators.
type ServiceOptions struct {
	// Store is the durable store; nil degrades durable reads to empty.
	Store Store

	// Fanout persists new alerts; nil skips persistence entirely.
	Fanout *FanoutWriter

	// Notifier receives critical alerts; nil disables notification.
	Notifier Notifier

	// Analytics is the sink's health probe; nil reports disconnected.
	Analytics AnalyticsPinger

	// Metrics is optional instrumentation.
	Metrics *Metrics

	// Now is the clock, defaulting to time.Now. Tests inject a fixed clock.
	Now func() time.Time
}

// NewService creates a service around the given engine and live store.
func NewService(engine *RuleEngine, idgen *IDGenerator, live *LiveStore, logger log.Logger, opts ServiceOptions) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		engine:    engine,
		idgen:     idgen,
		live:      live,
		store:     opts.Store,
		fanout:    opts.Fanout,
		notifier:  opts.Notifier,
		analytics: opts.Analytics,
		logger:    logger,
		metrics:   opts.Metrics,
		now:       now,
	}
}

// Analyze classifies one reading, stamps identity on the resulting alerts,
// accumulates them in the live store, and fans them out to the sinks.
// The in-memory accumulation never depends on sink outcomes. It returns
// the newly generated alerts, possibly none.
func (s *Service) Analyze(ctx context.Context, subjectID string, r Reading) []Alert {
	alerts := s.engine.Classify(subjectID, r, s.now())
	for i := range alerts {
		alerts[i].ID = s.idgen.Next()
	}

	s.live.Accumulate(subjectID, alerts)

	for i := range alerts {
		a := &alerts[i]
		if s.metrics != nil {
			s.metrics.AlertsTotal.WithLabelValues(string(a.Kind), string(a.Severity)).Inc()
		}
		if s.fanout != nil {
			s.fanout.Write(ctx, a)
		}
		if s.notifier != nil && a.Severity == SeverityCritical {
			if err := s.notifier.Send(ctx, a); err != nil {
				s.logger.Error(ctx, err, "alert notification failed", "alert_id", a.ID)
			}
		}
	}

	return alerts
}

// ListAll returns the full live view, newest first.
func (s *Service) ListAll() []Alert {
	return s.live.GetAll()
}

// Get returns the live history for one subject, newest first.
func (s *Service) Get(subjectID string) []Alert {
	return s.live.Get(subjectID)
}

// Query returns a subject's alerts from the requested source. The merged
// view concatenates live entries before durable ones, deduplicates by alert
// ID with the first occurrence winning, sorts by timestamp descending, and
// truncates to limit. Durable store failures degrade to the live slice.
func (s *Service) Query(ctx context.Context, subjectID string, source Source, limit int) []Alert {
	switch source {
	case SourceLive:
		return truncate(s.live.Get(subjectID), limit)
	case SourceDurable:
		return truncate(s.queryDurable(ctx, subjectID, limit), limit)
	default:
		combined := append(s.live.Get(subjectID), s.queryDurable(ctx, subjectID, limit)...)

		seen := make(map[string]struct{}, len(combined))
		merged := combined[:0]
		for _, a := range combined {
			if _, dup := seen[a.ID]; dup {
				continue
			}
			seen[a.ID] = struct{}{}
			merged = append(merged, a)
		}

		sort.SliceStable(merged, func(i, j int) bool {
			return merged[i].Timestamp.After(merged[j].Timestamp)
		})
		return truncate(merged, limit)
	}
}

// History returns a subject's durable history, newest first.
func (s *Service) History(ctx context.Context, subjectID string, limit int) []Alert {
	return s.queryDurable(ctx, subjectID, limit)
}

// Recent returns the subject's most recent durable alerts, for the
// summarizer to consume.
func (s *Service) Recent(ctx context.Context, subjectID string, count int) []Alert {
	return s.queryDurable(ctx, subjectID, count)
}

// Acknowledge flips the acknowledged flag on the matching live alert and
// reports whether it was found. The durable record is acknowledged
// best-effort alongside; its outcome does not affect the result.
func (s *Service) Acknowledge(ctx context.Context, alertID string) bool {
	found := s.live.Acknowledge(alertID)

	if s.store != nil {
		if _, err := s.store.Acknowledge(ctx, alertID); err != nil {
			s.logger.Error(ctx, err, "durable acknowledge failed", "alert_id", alertID)
		}
	}

	if s.metrics != nil {
		result := "found"
		if !found {
			result = "not_found"
		}
		s.metrics.AcksTotal.WithLabelValues(result).Inc()
	}
	return found
}

// Clear drops a subject's live history. Durable history is untouched.
func (s *Service) Clear(subjectID string) {
	s.live.Clear(subjectID)
}

// DurableConnected reports durable store reachability for the status
// endpoint. A service without a durable store reports false.
func (s *Service) DurableConnected(ctx context.Context) bool {
	return s.store != nil && s.store.Connected(ctx)
}

// AnalyticsConnected reports analytics sink reachability for the status
// endpoint. A service without a sink reports false.
func (s *Service) AnalyticsConnected(ctx context.Context) bool {
	return s.analytics != nil && s.analytics.Ping(ctx) == nil
}

func (s *Service) queryDurable(ctx context.Context, subjectID string, limit int) []Alert {
	if s.store == nil {
		return nil
	}
	recs, err := s.store.Query(ctx, subjectID, limit)
	if err != nil {
		s.logger.Error(ctx, err, "durable alert query failed", "subject_id", subjectID)
		return nil
	}
	out := make([]Alert, len(recs))
	for i, rec := range recs {
		out[i] = rec.Alert
	}
	return out
}

func truncate(alerts []Alert, limit int) []Alert {
	if limit > 0 && len(alerts) > limit {
		return alerts[:limit]
	}
	return alerts
}
