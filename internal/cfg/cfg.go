// Package cfg holds the application-level configuration for the alert
// engine, following the same RegisterFlags/Validate convention as the
// go-core packages it is wired next to.
package cfg

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/linnemanlabs/pulsewatch/internal/monitor"
)

// Config carries the alert engine's own settings; transport, logging,
// tracing and profiling settings live in their respective packages.
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	VitalsURL             string
	PollIntervalSeconds   int
	HistoryCap            int
	ThresholdsFile        string
	DatabaseURL           string
	ClickHouseAddr        string
	ClickHouseDatabase    string
	ClickHouseUser        string
	ClickHousePassword    string
	SlackWebhookURL       string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.VitalsURL, "vitals-url", "", "base URL of the vitals service the poller fetches readings from")
	fs.IntVar(&c.PollIntervalSeconds, "poll-interval-seconds", 5, "seconds between vitals poll cycles (1..600)")
	fs.IntVar(&c.HistoryCap, "history-cap", monitor.DefaultHistoryCap, "maximum live alerts retained per subject")
	fs.StringVar(&c.ThresholdsFile, "thresholds-file", "", "JSON file overriding the default classification thresholds (empty = defaults)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL for the durable alert store (empty = live store only)")
	fs.StringVar(&c.ClickHouseAddr, "clickhouse-addr", "", "ClickHouse address host:port for the analytics sink (empty = disabled)")
	fs.StringVar(&c.ClickHouseDatabase, "clickhouse-database", "pulsewatch", "ClickHouse database for the analytics sink")
	fs.StringVar(&c.ClickHouseUser, "clickhouse-user", "default", "ClickHouse username")
	fs.StringVar(&c.ClickHousePassword, "clickhouse-password", "", "ClickHouse password")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for critical alert notifications")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// The poller is the whole point of the service
	if c.VitalsURL == "" {
		errs = append(errs, errors.New("VITALS_URL is required"))
	}
	if c.PollIntervalSeconds <= 0 || c.PollIntervalSeconds > 600 {
		errs = append(errs, fmt.Errorf("invalid POLL_INTERVAL_SECONDS %d (must be 1..600)", c.PollIntervalSeconds))
	}

	if c.HistoryCap <= 0 {
		errs = append(errs, fmt.Errorf("invalid HISTORY_CAP %d (must be positive)", c.HistoryCap))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// LoadThresholds returns the classification thresholds: the defaults,
// overlaid with the JSON thresholds file when one is configured.
func (c *Config) LoadThresholds() (monitor.Thresholds, error) {
	t := monitor.DefaultThresholds()
	if c.ThresholdsFile == "" {
		return t, nil
	}

	data, err := os.ReadFile(c.ThresholdsFile)
	if err != nil {
		return t, fmt.Errorf("read thresholds file: %w", err)
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse thresholds file: %w", err)
	}
	return t, nil
}
