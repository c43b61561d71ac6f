// Package vitals fetches current subject readings from the vitals service
// and normalizes the wire payload into the engine's canonical Reading. The
// upstream service has emitted both camelCase and snake_case field names
// across versions; both are accepted here so the rule engine never sees the
// naming difference.
package vitals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/pulsewatch/internal/monitor"
)

const requestTimeout = 10 * time.Second

// Client fetches readings over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client for the given vitals service base URL.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// wireSubject is one subject entry as returned by the vitals service.
type wireSubject struct {
	ID     string      `json:"id"`
	Vitals WireReading `json:"vitals"`
}

// WireReading accepts both field naming conventions. The snake_case name
// wins when a payload carries both.
type WireReading struct {
	HeartRate       *float64           `json:"heart_rate"`
	HeartRateCamel  *float64           `json:"heartRate"`
	SpO2            *float64           `json:"spo2"`
	SpO2Camel       *float64           `json:"spO2"`
	BloodPressure   *WireBloodPressure `json:"blood_pressure"`
	BloodPressureCC *WireBloodPressure `json:"bloodPressure"`
	Temperature     *float64           `json:"temperature"`
	Respiratory     *float64           `json:"respiratory"`
	RespiratoryRate *float64           `json:"respiratory_rate"`
}

type WireBloodPressure struct {
	Systolic  *float64 `json:"systolic"`
	Diastolic *float64 `json:"diastolic"`
}

// FetchAll returns every monitored subject's current reading in one call.
func (c *Client) FetchAll(ctx context.Context) ([]monitor.SubjectVitals, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/subjects", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch readings: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("vitals service returned %d: %s", resp.StatusCode, string(body))
	}

	var subjects []wireSubject
	if err := json.NewDecoder(resp.Body).Decode(&subjects); err != nil {
		return nil, fmt.Errorf("decode readings: %w", err)
	}

	out := make([]monitor.SubjectVitals, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, monitor.SubjectVitals{
			SubjectID: s.ID,
			Reading:   Normalize(s.Vitals),
		})
	}
	return out, nil
}

// Normalize maps a wire reading onto the canonical Reading, resolving the
// two naming conventions. Absent fields stay nil; the rule engine applies
// the neutral defaults.
func Normalize(w WireReading) monitor.Reading {
	r := monitor.Reading{
		HeartRate:       coalesce(w.HeartRate, w.HeartRateCamel),
		SpO2:            coalesce(w.SpO2, w.SpO2Camel),
		Temperature:     w.Temperature,
		RespiratoryRate: coalesce(w.RespiratoryRate, w.Respiratory),
	}
	if bp := firstBP(w.BloodPressure, w.BloodPressureCC); bp != nil {
		r.Systolic = bp.Systolic
		r.Diastolic = bp.Diastolic
	}
	return r
}

func coalesce(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstBP(vals ...*WireBloodPressure) *WireBloodPressure {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
