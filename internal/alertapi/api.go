// Package alertapi exposes the alert engine over HTTP. Handlers only decode
// arguments and encode responses; all behavior lives in the monitor service.
package alertapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/pulsewatch/internal/monitor"
)

// Default result limits chosen by this interface; the engine itself takes
// whatever the caller passes.
const (
	defaultQueryLimit   = 5
	defaultHistoryLimit = 100
	defaultRecentCount  = 5
)

// AlertService defines the business operations alertapi needs.
type AlertService interface {
	Analyze(ctx context.Context, subjectID string, r monitor.Reading) []monitor.Alert
	ListAll() []monitor.Alert
	Query(ctx context.Context, subjectID string, source monitor.Source, limit int) []monitor.Alert
	History(ctx context.Context, subjectID string, limit int) []monitor.Alert
	Recent(ctx context.Context, subjectID string, count int) []monitor.Alert
	Acknowledge(ctx context.Context, alertID string) bool
	Clear(subjectID string)
	DurableConnected(ctx context.Context) bool
	AnalyticsConnected(ctx context.Context) bool
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	svc    AlertService
}

// New creates a new API handler.
func New(logger log.Logger, svc AlertService) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("alert service is required"))
	}
	return &API{
		logger: logger,
		svc:    svc,
	}
}

// RegisterRoutes attaches API endpoints to the router. The {id} segment is
// a subject ID on every route except acknowledge, where it is an alert ID.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/alerts", a.handleListAlerts)
		r.Get("/alerts/{id}", a.handleSubjectAlerts)
		r.Get("/alerts/{id}/history", a.handleSubjectHistory)
		r.Get("/alerts/{id}/recent", a.handleSubjectRecent)
		r.Post("/alerts/{id}/acknowledge", a.handleAcknowledge)
		r.Delete("/alerts/{id}", a.handleClearSubject)
		r.Post("/analyze", a.handleAnalyze)
		r.Get("/status", a.handleStatus)
	})
}

// handleStatus reports backend connectivity. It always answers 200: the
// engine keeps serving live alerts with both backends down, so the flags
// are informational, not a readiness signal.
func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":              "ok",
		"durable_connected":   a.svc.DurableConnected(r.Context()),
		"analytics_connected": a.svc.AnalyticsConnected(r.Context()),
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, nonNil(a.svc.ListAll()))
}

func (a *API) handleSubjectAlerts(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "id")
	source := parseSource(r.URL.Query().Get("source"))
	limit := queryInt(r, "limit", defaultQueryLimit)

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("pulsewatch.subject.id", subjectID),
		attribute.String("pulsewatch.alerts.source", string(source)),
	)

	writeJSON(w, nonNil(a.svc.Query(r.Context(), subjectID, source, limit)))
}

func (a *API) handleSubjectHistory(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "id")
	limit := queryInt(r, "limit", defaultHistoryLimit)
	writeJSON(w, nonNil(a.svc.History(r.Context(), subjectID, limit)))
}

func (a *API) handleSubjectRecent(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "id")
	count := queryInt(r, "count", defaultRecentCount)
	writeJSON(w, nonNil(a.svc.Recent(r.Context(), subjectID, count)))
}

func (a *API) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("pulsewatch.alert.id", alertID))

	if !a.svc.Acknowledge(r.Context(), alertID) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{
		"status":   "acknowledged",
		"alert_id": alertID,
	})
}

func (a *API) handleClearSubject(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "id")
	a.svc.Clear(subjectID)
	writeJSON(w, map[string]string{
		"status":     "cleared",
		"subject_id": subjectID,
	})
}

func parseSource(s string) monitor.Source {
	switch s {
	case "live":
		return monitor.SourceLive
	case "durable":
		return monitor.SourceDurable
	default:
		return monitor.SourceMerged
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// nonNil keeps empty result sets encoding as [] rather than null.
func nonNil(alerts []monitor.Alert) []monitor.Alert {
	if alerts == nil {
		return []monitor.Alert{}
	}
	return alerts
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
