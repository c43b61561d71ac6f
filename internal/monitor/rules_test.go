package monitor

import (
	"strings"
	"testing"
	"time"
)

func fp(v float64) *float64 { return &v }

// normalReading fills every channel with an unremarkable value so tests can
// perturb one channel at a time.
func normalReading() Reading {
	return Reading{
		HeartRate:       fp(75),
		SpO2:            fp(98),
		Systolic:        fp(120),
		Diastolic:       fp(80),
		Temperature:     fp(37.0),
		RespiratoryRate: fp(16),
	}
}

func classify(t *testing.T, r Reading) []Alert {
	t.Helper()
	e := NewRuleEngine(DefaultThresholds())
	return e.Classify("subj-1", r, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
}

func TestClassify_SingleChannel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		mutate   func(r *Reading)
		kind     Kind
		severity Severity
		vital    VitalKind
	}{
		{"tachycardia critical", func(r *Reading) { r.HeartRate = fp(182) }, KindTachycardia, SeverityCritical, VitalHeartRate},
		{"tachycardia warning", func(r *Reading) { r.HeartRate = fp(130) }, KindTachycardia, SeverityWarning, VitalHeartRate},
		{"bradycardia critical", func(r *Reading) { r.HeartRate = fp(35) }, KindBradycardia, SeverityCritical, VitalHeartRate},
		{"bradycardia warning", func(r *Reading) { r.HeartRate = fp(45) }, KindBradycardia, SeverityWarning, VitalHeartRate},
		{"hypoxia critical", func(r *Reading) { r.SpO2 = fp(80) }, KindHypoxia, SeverityCritical, VitalSpO2},
		{"hypoxia warning", func(r *Reading) { r.SpO2 = fp(90) }, KindHypoxia, SeverityWarning, VitalSpO2},
		{"hypertensive crisis", func(r *Reading) { r.Systolic = fp(185) }, KindHypertensiveCrisis, SeverityCritical, VitalBloodPressure},
		{"elevated bp", func(r *Reading) { r.Systolic = fp(150) }, KindHypertensiveCrisis, SeverityWarning, VitalBloodPressure},
		{"hypotension", func(r *Reading) { r.Systolic = fp(75) }, KindHypotension, SeverityCritical, VitalBloodPressure},
		{"fever critical", func(r *Reading) { r.Temperature = fp(40.1) }, KindFever, SeverityCritical, VitalTemperature},
		{"fever warning", func(r *Reading) { r.Temperature = fp(38.5) }, KindFever, SeverityWarning, VitalTemperature},
		{"hypothermia critical", func(r *Reading) { r.Temperature = fp(34.2) }, KindHypothermia, SeverityCritical, VitalTemperature},
		{"hypothermia warning", func(r *Reading) { r.Temperature = fp(35.5) }, KindHypothermia, SeverityWarning, VitalTemperature},
		{"tachypnea critical", func(r *Reading) { r.RespiratoryRate = fp(32) }, KindTachypnea, SeverityCritical, VitalRespiratoryRate},
		{"tachypnea warning", func(r *Reading) { r.RespiratoryRate = fp(26) }, KindTachypnea, SeverityWarning, VitalRespiratoryRate},
		{"bradypnea critical", func(r *Reading) { r.RespiratoryRate = fp(6) }, KindBradypnea, SeverityCritical, VitalRespiratoryRate},
		{"bradypnea warning", func(r *Reading) { r.RespiratoryRate = fp(9) }, KindBradypnea, SeverityWarning, VitalRespiratoryRate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := normalReading()
			tc.mutate(&r)
			alerts := classify(t, r)

			if len(alerts) != 1 {
				t.Fatalf("expected exactly 1 alert, got %d: %+v", len(alerts), alerts)
			}
			a := alerts[0]
			if a.Kind != tc.kind {
				t.Errorf("kind = %q, want %q", a.Kind, tc.kind)
			}
			if a.Severity != tc.severity {
				t.Errorf("severity = %q, want %q", a.Severity, tc.severity)
			}
			if a.VitalKind != tc.vital {
				t.Errorf("vital kind = %q, want %q", a.VitalKind, tc.vital)
			}
			if a.SubjectID != "subj-1" {
				t.Errorf("subject = %q, want subj-1", a.SubjectID)
			}
			if a.ID != "" {
				t.Errorf("engine must not assign IDs, got %q", a.ID)
			}
		})
	}
}

func TestClassify_NormalReadingIsQuiet(t *testing.T) {
	t.Parallel()

	if alerts := classify(t, normalReading()); len(alerts) != 0 {
		t.Fatalf("normal reading produced %d alerts: %+v", len(alerts), alerts)
	}
}

func TestClassify_BoundariesInclusive(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()

	cases := []struct {
		name   string
		mutate func(r *Reading)
		want   int
		sev    Severity
	}{
		{"hr exactly critical", func(r *Reading) { r.HeartRate = fp(th.HRHighCritical) }, 1, SeverityCritical},
		{"hr exactly warning", func(r *Reading) { r.HeartRate = fp(th.HRHighWarning) }, 1, SeverityWarning},
		{"hr just below warning", func(r *Reading) { r.HeartRate = fp(th.HRHighWarning - 1) }, 0, ""},
		{"spo2 exactly critical", func(r *Reading) { r.SpO2 = fp(th.SpO2Critical) }, 1, SeverityCritical},
		{"spo2 exactly warning", func(r *Reading) { r.SpO2 = fp(th.SpO2Warning) }, 1, SeverityWarning},
		{"spo2 just above warning", func(r *Reading) { r.SpO2 = fp(th.SpO2Warning + 1) }, 0, ""},
		{"temp exactly low critical", func(r *Reading) { r.Temperature = fp(th.TempLowCritical) }, 1, SeverityCritical},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := normalReading()
			tc.mutate(&r)
			alerts := classify(t, r)

			if len(alerts) != tc.want {
				t.Fatalf("got %d alerts, want %d: %+v", len(alerts), tc.want, alerts)
			}
			if tc.want == 1 && alerts[0].Severity != tc.sev {
				t.Errorf("severity = %q, want %q", alerts[0].Severity, tc.sev)
			}
		})
	}
}

func TestClassify_CriticalShadowsWarning(t *testing.T) {
	t.Parallel()

	r := normalReading()
	r.HeartRate = fp(200) // above both boundaries
	alerts := classify(t, r)

	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1: %+v", len(alerts), alerts)
	}
	if alerts[0].Severity != SeverityCritical {
		t.Errorf("severity = %q, want critical", alerts[0].Severity)
	}
}

func TestClassify_ChannelsFireIndependently(t *testing.T) {
	t.Parallel()

	r := Reading{
		HeartRate:       fp(182), // critical tachycardia
		SpO2:            fp(90),  // warning hypoxia
		Systolic:        fp(185), // hypertensive crisis
		Diastolic:       fp(110),
		Temperature:     fp(40.0), // critical fever
		RespiratoryRate: fp(32),   // critical tachypnea
	}
	alerts := classify(t, r)

	wantKinds := []Kind{KindTachycardia, KindHypoxia, KindHypertensiveCrisis, KindFever, KindTachypnea}
	if len(alerts) != len(wantKinds) {
		t.Fatalf("got %d alerts, want %d: %+v", len(alerts), len(wantKinds), alerts)
	}
	for i, k := range wantKinds {
		if alerts[i].Kind != k {
			t.Errorf("alerts[%d].Kind = %q, want %q", i, alerts[i].Kind, k)
		}
	}
}

func TestClassify_SensorDisconnect(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		reading Reading
	}{
		{"both zero", Reading{HeartRate: fp(0), SpO2: fp(0)}},
		{"hr zero only", Reading{HeartRate: fp(0), SpO2: fp(98)}},
		{"spo2 zero only", Reading{HeartRate: fp(75), SpO2: fp(0)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			alerts := classify(t, tc.reading)
			if len(alerts) != 1 {
				t.Fatalf("got %d alerts, want exactly 1 disconnect: %+v", len(alerts), alerts)
			}
			a := alerts[0]
			if a.Kind != KindSensorDisconnect {
				t.Errorf("kind = %q, want %q", a.Kind, KindSensorDisconnect)
			}
			if a.Severity != SeverityWarning {
				t.Errorf("severity = %q, want warning", a.Severity)
			}
			if a.VitalKind != VitalSensor {
				t.Errorf("vital kind = %q, want %q", a.VitalKind, VitalSensor)
			}
		})
	}
}

func TestClassify_ZeroSentinelSuppressesLowSideRules(t *testing.T) {
	t.Parallel()

	// A zero SpO2 must not also read as critical hypoxia, and a zero heart
	// rate must not also read as bradycardia.
	alerts := classify(t, Reading{HeartRate: fp(0), SpO2: fp(0)})
	for _, a := range alerts {
		if a.Kind == KindHypoxia || a.Kind == KindBradycardia {
			t.Errorf("zero sentinel produced %q alert", a.Kind)
		}
	}
}

func TestClassify_AbsentFieldsUseNeutralDefaults(t *testing.T) {
	t.Parallel()

	// Everything absent: heart rate defaults to the zero sentinel, every
	// other channel to a normal value, so only the disconnect rule fires.
	alerts := classify(t, Reading{})
	if len(alerts) != 1 || alerts[0].Kind != KindSensorDisconnect {
		t.Fatalf("empty reading: got %+v, want single sensor disconnect", alerts)
	}

	// With a normal heart rate present, an otherwise absent reading is quiet.
	quiet := classify(t, Reading{HeartRate: fp(75)})
	if len(quiet) != 0 {
		t.Fatalf("got %d alerts, want 0: %+v", len(quiet), quiet)
	}
}

func TestClassify_MessageCarriesCrossedThreshold(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(r *Reading)
		want   []string
	}{
		{"critical tachycardia", func(r *Reading) { r.HeartRate = fp(182) }, []string{"182", ">=150"}},
		{"warning tachycardia", func(r *Reading) { r.HeartRate = fp(130) }, []string{"130", ">=120"}},
		{"warning hypoxia", func(r *Reading) { r.SpO2 = fp(90) }, []string{"90", "<=92"}},
		{"hypertensive crisis", func(r *Reading) { r.Systolic = fp(185); r.Diastolic = fp(110) }, []string{"185/110", ">=180"}},
		{"warning fever", func(r *Reading) { r.Temperature = fp(38.5) }, []string{"38.5", ">=38"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := normalReading()
			tc.mutate(&r)
			alerts := classify(t, r)
			if len(alerts) != 1 {
				t.Fatalf("got %d alerts, want 1: %+v", len(alerts), alerts)
			}
			for _, frag := range tc.want {
				if !strings.Contains(alerts[0].Message, frag) {
					t.Errorf("message %q missing %q", alerts[0].Message, frag)
				}
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	t.Parallel()

	e := NewRuleEngine(DefaultThresholds())
	r := Reading{HeartRate: fp(182), SpO2: fp(88)}
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	first := e.Classify("subj-1", r, at)
	second := e.Classify("subj-1", r, at)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("alert %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestClassify_CustomThresholds(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()
	th.HRHighCritical = 100
	e := NewRuleEngine(th)

	r := normalReading()
	r.HeartRate = fp(105)
	alerts := e.Classify("subj-1", r, time.Now())

	if len(alerts) != 1 || alerts[0].Severity != SeverityCritical {
		t.Fatalf("custom threshold not honored: %+v", alerts)
	}
	if !strings.Contains(alerts[0].Message, ">=100") {
		t.Errorf("message %q missing custom threshold", alerts[0].Message)
	}
}
