package monitor

import "time"

// Severity classifies how urgent an alert is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
	SeverityNormal   Severity = "normal"
)

// Rank returns the ordering weight of a severity, higher is more urgent.
// Unknown severities rank below normal.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	case SeverityNormal:
		return 0
	default:
		return -1
	}
}

// Kind identifies the clinical condition an alert reports.
type Kind string

const (
	KindTachycardia        Kind = "tachycardia"
	KindBradycardia        Kind = "bradycardia"
	KindHypoxia            Kind = "hypoxia"
	KindHypertensiveCrisis Kind = "hypertensive_crisis"
	KindHypotension        Kind = "hypotension"
	KindFever              Kind = "fever"
	KindHypothermia        Kind = "hypothermia"
	KindTachypnea          Kind = "tachypnea"
	KindBradypnea          Kind = "bradypnea"
	KindSensorDisconnect   Kind = "sensor_disconnect"
)

// VitalKind names the measured channel that triggered an alert.
type VitalKind string

const (
	VitalHeartRate       VitalKind = "heart_rate"
	VitalSpO2            VitalKind = "spo2"
	VitalBloodPressure   VitalKind = "blood_pressure"
	VitalTemperature     VitalKind = "temperature"
	VitalRespiratoryRate VitalKind = "respiratory_rate"
	VitalSensor          VitalKind = "sensor"
)

// Alert is one classified deviation derived from a single reading.
// Identity (ID) is assigned exactly once at creation; Acknowledged is
// the only field that mutates afterwards.
type Alert struct {
	ID           string    `json:"id"`
	SubjectID    string    `json:"subject_id"`
	Kind         Kind      `json:"kind"`
	Severity     Severity  `json:"severity"`
	VitalKind    VitalKind `json:"vital_kind"`
	VitalValue   float64   `json:"vital_value"`
	Threshold    float64   `json:"threshold"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	Acknowledged bool      `json:"acknowledged"`
}

// Record is the durable form of an Alert plus store-assigned metadata.
type Record struct {
	Alert
	RecordID       string     `json:"record_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
}

// Reading is one normalized snapshot of a subject's vital signs.
// Nil fields were absent from the source payload; the rule engine
// substitutes neutral defaults.
type Reading struct {
	HeartRate       *float64 `json:"heart_rate,omitempty"`
	SpO2            *float64 `json:"spo2,omitempty"`
	Systolic        *float64 `json:"systolic,omitempty"`
	Diastolic       *float64 `json:"diastolic,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
	RespiratoryRate *float64 `json:"respiratory_rate,omitempty"`
}

// Source selects which store a read query consults.
type Source string

const (
	SourceLive    Source = "live"
	SourceDurable Source = "durable"
	SourceMerged  Source = "merged"
)
