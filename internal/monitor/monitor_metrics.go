package monitor

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the alert engine.
type Metrics struct {
	AlertsTotal       *prometheus.CounterVec
	PollCyclesTotal   *prometheus.CounterVec
	PollCycleDuration prometheus.Histogram
	SubjectsPolled    prometheus.Histogram
	SinkWritesTotal   *prometheus.CounterVec
	AcksTotal         *prometheus.CounterVec
	LiveAlerts        prometheus.GaugeFunc
}

// NewMetrics registers and returns engine metrics on the given registerer.
// The live store gauge reads the store's current size on scrape.
func NewMetrics(reg prometheus.Registerer, live *LiveStore) *Metrics {
	m := &Metrics{
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsewatch_alerts_generated_total",
			Help: "Total alerts generated by kind and severity.",
		}, []string{"kind", "severity"}),
		PollCyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsewatch_poll_cycles_total",
			Help: "Total vitals poll cycles by outcome.",
		}, []string{"outcome"}),
		PollCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulsewatch_poll_cycle_duration_seconds",
			Help:    "Duration of vitals poll cycles in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms .. ~5s
		}),
		SubjectsPolled: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulsewatch_poll_subjects",
			Help:    "Subjects returned per vitals fetch.",
			Buckets: prometheus.LinearBuckets(0, 5, 10), // 0 .. 45
		}),
		SinkWritesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsewatch_sink_writes_total",
			Help: "Alert sink writes by sink and outcome.",
		}, []string{"sink", "outcome"}),
		AcksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsewatch_acknowledgements_total",
			Help: "Alert acknowledgement attempts by result.",
		}, []string{"result"}),
		LiveAlerts: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pulsewatch_live_alerts",
			Help: "Alerts currently retained in the live store.",
		}, func() float64 { return float64(live.Len()) }),
	}

	reg.MustRegister(
		m.AlertsTotal,
		m.PollCyclesTotal,
		m.PollCycleDuration,
		m.SubjectsPolled,
		m.SinkWritesTotal,
		m.AcksTotal,
		m.LiveAlerts,
	)

	return m
}
