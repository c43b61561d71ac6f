package monitor

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"
)

// DefaultPollInterval is how often the poller fetches readings.
const DefaultPollInterval = 5 * time.Second

// SubjectVitals is one subject's current reading as returned by the
// vitals source.
type SubjectVitals struct {
	SubjectID string
	Reading   Reading
}

// VitalsSource fetches the current readings for every monitored subject
// in a single call.
type VitalsSource interface {
	FetchAll(ctx context.Context) ([]SubjectVitals, error)
}

// Poller drives the alert engine on a fixed schedule: each tick it fetches
// all subjects' readings and runs each through the service. A failed fetch
// skips the whole cycle; no error ever escapes the loop.
type Poller struct {
	source   VitalsSource
	svc      *Service
	interval time.Duration
	logger   log.Logger
	metrics  *Metrics
}

// NewPoller creates a poller. An interval <= 0 falls back to
// DefaultPollInterval.
func NewPoller(source VitalsSource, svc *Service, interval time.Duration, logger log.Logger, metrics *Metrics) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Poller{
		source:   source,
		svc:      svc,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run polls until ctx is cancelled. It performs one cycle immediately and
// then on every tick.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info(ctx, "vitals poller started", "interval", p.interval.String())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info(context.WithoutCancel(ctx), "vitals poller stopped")
			return
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	start := time.Now()

	subjects, err := p.source.FetchAll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Error(ctx, err, "vitals fetch failed, skipping cycle")
		p.observeCycle("fetch_error", start)
		return
	}

	generated := 0
	for _, sv := range subjects {
		alerts := p.svc.Analyze(ctx, sv.SubjectID, sv.Reading)
		generated += len(alerts)
	}

	if p.metrics != nil {
		p.metrics.SubjectsPolled.Observe(float64(len(subjects)))
	}
	p.observeCycle("ok", start)

	if generated > 0 {
		p.logger.Info(ctx, "poll cycle complete",
			"subjects", len(subjects),
			"alerts", generated,
			"duration", time.Since(start).Seconds(),
		)
	}
}

func (p *Poller) observeCycle(outcome string, start time.Time) {
	if p.metrics == nil {
		return
	}
	p.metrics.PollCyclesTotal.WithLabelValues(outcome).Inc()
	p.metrics.PollCycleDuration.Observe(time.Since(start).Seconds())
}
