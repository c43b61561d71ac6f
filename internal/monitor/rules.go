package monitor

import (
	"fmt"
	"time"
)

// Thresholds holds the classification boundaries for every vital channel.
// All comparisons in the rule engine are against these values, and the
// rendered alert message always carries the exact boundary that was crossed.
type Thresholds struct {
	HRHighCritical float64 `json:"hr_high_critical"`
	HRHighWarning  float64 `json:"hr_high_warning"`
	HRLowWarning   float64 `json:"hr_low_warning"`
	HRLowCritical  float64 `json:"hr_low_critical"`

	SpO2Critical float64 `json:"spo2_critical"`
	SpO2Warning  float64 `json:"spo2_warning"`

	SystolicHighCritical float64 `json:"systolic_high_critical"`
	SystolicHighWarning  float64 `json:"systolic_high_warning"`
	SystolicLowCritical  float64 `json:"systolic_low_critical"`

	TempHighCritical float64 `json:"temp_high_critical"`
	TempHighWarning  float64 `json:"temp_high_warning"`
	TempLowWarning   float64 `json:"temp_low_warning"`
	TempLowCritical  float64 `json:"temp_low_critical"`

	RespHighCritical float64 `json:"resp_high_critical"`
	RespHighWarning  float64 `json:"resp_high_warning"`
	RespLowWarning   float64 `json:"resp_low_warning"`
	RespLowCritical  float64 `json:"resp_low_critical"`
}

// DefaultThresholds returns the stock deployment boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HRHighCritical: 150,
		HRHighWarning:  120,
		HRLowWarning:   50,
		HRLowCritical:  40,

		SpO2Critical: 85,
		SpO2Warning:  92,

		SystolicHighCritical: 180,
		SystolicHighWarning:  140,
		SystolicLowCritical:  80,

		TempHighCritical: 39.5,
		TempHighWarning:  38.0,
		TempLowWarning:   36.0,
		TempLowCritical:  35.0,

		RespHighCritical: 30,
		RespHighWarning:  24,
		RespLowWarning:   10,
		RespLowCritical:  8,
	}
}

// Neutral defaults substituted for absent reading fields.
const (
	defaultHeartRate   = 0
	defaultSpO2        = 100
	defaultSystolic    = 120
	defaultDiastolic   = 80
	defaultTemperature = 37.0
	defaultRespiratory = 16
)

// RuleEngine classifies readings against fixed thresholds. It is pure:
// no I/O, no shared state, deterministic for identical input.
type RuleEngine struct {
	t Thresholds
}

// NewRuleEngine creates an engine with the given thresholds.
func NewRuleEngine(t Thresholds) *RuleEngine {
	return &RuleEngine{t: t}
}

// Classify evaluates one reading and returns zero or more alerts, one per
// triggered channel rule, in fixed channel order: heart rate, SpO2, blood
// pressure, temperature, respiratory rate, sensor disconnect. Channels fire
// independently; within one channel critical shadows warning. Returned
// alerts carry no ID; the caller stamps identity.
//
// A zero heart rate or SpO2 is a sentinel for a disconnected sensor and is
// excluded from the low-side checks of its channel; it triggers the sensor
// disconnect rule instead.
func (e *RuleEngine) Classify(subjectID string, r Reading, at time.Time) []Alert {
	hr := value(r.HeartRate, defaultHeartRate)
	spo2 := value(r.SpO2, defaultSpO2)
	systolic := value(r.Systolic, defaultSystolic)
	diastolic := value(r.Diastolic, defaultDiastolic)
	temp := value(r.Temperature, defaultTemperature)
	resp := value(r.RespiratoryRate, defaultRespiratory)

	var alerts []Alert
	emit := func(kind Kind, sev Severity, vital VitalKind, val, threshold float64, msg string) {
		alerts = append(alerts, Alert{
			SubjectID:  subjectID,
			Kind:       kind,
			Severity:   sev,
			VitalKind:  vital,
			VitalValue: val,
			Threshold:  threshold,
			Message:    msg,
			Timestamp:  at,
		})
	}

	// Heart rate
	if hr >= e.t.HRHighCritical {
		emit(KindTachycardia, SeverityCritical, VitalHeartRate, hr, e.t.HRHighCritical,
			fmt.Sprintf("Critical tachycardia detected. Heart rate: %g bpm (threshold: >=%g)", hr, e.t.HRHighCritical))
	} else if hr >= e.t.HRHighWarning {
		emit(KindTachycardia, SeverityWarning, VitalHeartRate, hr, e.t.HRHighWarning,
			fmt.Sprintf("Elevated heart rate detected: %g bpm (threshold: >=%g)", hr, e.t.HRHighWarning))
	}
	if hr <= e.t.HRLowCritical && hr > 0 {
		emit(KindBradycardia, SeverityCritical, VitalHeartRate, hr, e.t.HRLowCritical,
			fmt.Sprintf("Critical bradycardia detected. Heart rate: %g bpm (threshold: <=%g)", hr, e.t.HRLowCritical))
	} else if hr <= e.t.HRLowWarning && hr > 0 {
		emit(KindBradycardia, SeverityWarning, VitalHeartRate, hr, e.t.HRLowWarning,
			fmt.Sprintf("Low heart rate detected: %g bpm (threshold: <=%g)", hr, e.t.HRLowWarning))
	}

	// SpO2 (one-sided; zero is the disconnect sentinel, not hypoxia)
	if spo2 <= e.t.SpO2Critical && spo2 > 0 {
		emit(KindHypoxia, SeverityCritical, VitalSpO2, spo2, e.t.SpO2Critical,
			fmt.Sprintf("Critical hypoxia detected. SpO2: %g%% (threshold: <=%g%%)", spo2, e.t.SpO2Critical))
	} else if spo2 <= e.t.SpO2Warning && spo2 > 0 {
		emit(KindHypoxia, SeverityWarning, VitalSpO2, spo2, e.t.SpO2Warning,
			fmt.Sprintf("Low oxygen saturation detected: %g%% (threshold: <=%g%%)", spo2, e.t.SpO2Warning))
	}

	// Blood pressure (systolic only)
	if systolic >= e.t.SystolicHighCritical {
		emit(KindHypertensiveCrisis, SeverityCritical, VitalBloodPressure, systolic, e.t.SystolicHighCritical,
			fmt.Sprintf("Hypertensive crisis! BP: %g/%g mmHg (threshold: >=%g)", systolic, diastolic, e.t.SystolicHighCritical))
	} else if systolic >= e.t.SystolicHighWarning {
		emit(KindHypertensiveCrisis, SeverityWarning, VitalBloodPressure, systolic, e.t.SystolicHighWarning,
			fmt.Sprintf("Elevated blood pressure: %g/%g mmHg (threshold: >=%g)", systolic, diastolic, e.t.SystolicHighWarning))
	}
	if systolic <= e.t.SystolicLowCritical && systolic > 0 {
		emit(KindHypotension, SeverityCritical, VitalBloodPressure, systolic, e.t.SystolicLowCritical,
			fmt.Sprintf("Critical hypotension! BP: %g/%g mmHg (threshold: <=%g)", systolic, diastolic, e.t.SystolicLowCritical))
	}

	// Temperature
	if temp >= e.t.TempHighCritical {
		emit(KindFever, SeverityCritical, VitalTemperature, temp, e.t.TempHighCritical,
			fmt.Sprintf("High fever detected: %g°C (threshold: >=%g°C)", temp, e.t.TempHighCritical))
	} else if temp >= e.t.TempHighWarning {
		emit(KindFever, SeverityWarning, VitalTemperature, temp, e.t.TempHighWarning,
			fmt.Sprintf("Elevated temperature: %g°C (threshold: >=%g°C)", temp, e.t.TempHighWarning))
	}
	if temp <= e.t.TempLowCritical && temp > 0 {
		emit(KindHypothermia, SeverityCritical, VitalTemperature, temp, e.t.TempLowCritical,
			fmt.Sprintf("Critical hypothermia: %g°C (threshold: <=%g°C)", temp, e.t.TempLowCritical))
	} else if temp <= e.t.TempLowWarning && temp > 0 {
		emit(KindHypothermia, SeverityWarning, VitalTemperature, temp, e.t.TempLowWarning,
			fmt.Sprintf("Low body temperature: %g°C (threshold: <=%g°C)", temp, e.t.TempLowWarning))
	}

	// Respiratory rate
	if resp >= e.t.RespHighCritical {
		emit(KindTachypnea, SeverityCritical, VitalRespiratoryRate, resp, e.t.RespHighCritical,
			fmt.Sprintf("Critical tachypnea: %g/min (threshold: >=%g)", resp, e.t.RespHighCritical))
	} else if resp >= e.t.RespHighWarning {
		emit(KindTachypnea, SeverityWarning, VitalRespiratoryRate, resp, e.t.RespHighWarning,
			fmt.Sprintf("Elevated respiratory rate: %g/min (threshold: >=%g)", resp, e.t.RespHighWarning))
	}
	if resp <= e.t.RespLowCritical && resp > 0 {
		emit(KindBradypnea, SeverityCritical, VitalRespiratoryRate, resp, e.t.RespLowCritical,
			fmt.Sprintf("Critical bradypnea: %g/min (threshold: <=%g)", resp, e.t.RespLowCritical))
	} else if resp <= e.t.RespLowWarning && resp > 0 {
		emit(KindBradypnea, SeverityWarning, VitalRespiratoryRate, resp, e.t.RespLowWarning,
			fmt.Sprintf("Low respiratory rate: %g/min (threshold: <=%g)", resp, e.t.RespLowWarning))
	}

	// Sensor disconnect, independent of the channel rules above
	if hr == 0 || spo2 == 0 {
		emit(KindSensorDisconnect, SeverityWarning, VitalSensor, 0, 0,
			"Vital signs sensor may be disconnected. Check subject monitoring equipment.")
	}

	return alerts
}

func value(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
