package monitor

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"
)

// FanoutWriter sends each new alert to the durable store and the analytics
// sink as two independent best-effort writes. A failure in one sink is
// logged and does not prevent or roll back the other; there is no
// transactional guarantee between the two.
type FanoutWriter struct {
	store   Store
	sink    AnalyticsSink
	logger  log.Logger
	metrics *Metrics
}

// NewFanoutWriter creates a writer. Either sink may be nil, in which case
// that leg is skipped.
func NewFanoutWriter(store Store, sink AnalyticsSink, logger log.Logger, metrics *Metrics) *FanoutWriter {
	if logger == nil {
		logger = log.Nop()
	}
	return &FanoutWriter{
		store:   store,
		sink:    sink,
		logger:  logger,
		metrics: metrics,
	}
}

// Write fans one alert out to both sinks.
func (w *FanoutWriter) Write(ctx context.Context, a *Alert) {
	if w.store != nil {
		rec := &Record{Alert: *a, CreatedAt: time.Now()}
		if _, err := w.store.Save(ctx, rec); err != nil {
			w.logger.Error(ctx, err, "durable alert write failed", "alert_id", a.ID, "subject_id", a.SubjectID)
			w.observe("durable", false)
		} else {
			w.observe("durable", true)
		}
	}

	if w.sink != nil {
		if err := w.sink.Log(ctx, a); err != nil {
			w.logger.Error(ctx, err, "analytics alert write failed", "alert_id", a.ID, "subject_id", a.SubjectID)
			w.observe("analytics", false)
		} else {
			w.observe("analytics", true)
		}
	}
}

func (w *FanoutWriter) observe(sink string, ok bool) {
	if w.metrics == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	w.metrics.SinkWritesTotal.WithLabelValues(sink, outcome).Inc()
}
