package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mockStore is an in-memory Store with injectable failures.
type mockStore struct {
	mu      sync.Mutex
	records []Record

	saveErr  error
	queryErr error
	ackErr   error

	acked []string
}

func (m *mockStore) Save(_ context.Context, rec *Record) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return "", m.saveErr
	}
	cp := *rec
	cp.RecordID = "rec-test"
	m.records = append(m.records, cp)
	return cp.RecordID, nil
}

func (m *mockStore) Query(_ context.Context, subjectID string, limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	var out []Record
	for _, rec := range m.records {
		if rec.SubjectID == subjectID {
			out = append(out, rec)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockStore) Acknowledge(_ context.Context, alertID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ackErr != nil {
		return false, m.ackErr
	}
	m.acked = append(m.acked, alertID)
	for i := range m.records {
		if m.records[i].ID == alertID {
			m.records[i].Acknowledged = true
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) Connected(_ context.Context) bool { return true }

// mockSink records every alert logged to it.
type mockSink struct {
	mu     sync.Mutex
	logged []Alert
	err    error
}

func (m *mockSink) Log(_ context.Context, a *Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.logged = append(m.logged, *a)
	return nil
}

// mockNotifier records Send calls.
type mockNotifier struct {
	mu   sync.Mutex
	sent []Alert
	err  error
}

func (m *mockNotifier) Send(_ context.Context, a *Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, *a)
	return nil
}

func fixedClock() func() time.Time {
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func newTestService(store Store, sink AnalyticsSink, notifier Notifier) *Service {
	engine := NewRuleEngine(DefaultThresholds())
	idgen := NewIDGenerator(fixedClock())
	live := NewLiveStore(DefaultHistoryCap)
	var fanout *FanoutWriter
	if store != nil || sink != nil {
		fanout = NewFanoutWriter(store, sink, nil, nil)
	}
	return NewService(engine, idgen, live, nil, ServiceOptions{
		Store:    store,
		Fanout:   fanout,
		Notifier: notifier,
		Now:      fixedClock(),
	})
}

func TestService_AnalyzeStampsAndAccumulates(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	sink := &mockSink{}
	svc := newTestService(store, sink, nil)

	alerts := svc.Analyze(context.Background(), "subj-1", Reading{HeartRate: fp(182)})

	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	if alerts[0].ID == "" {
		t.Fatal("service did not stamp an ID")
	}

	live := svc.Get("subj-1")
	if len(live) != 1 || live[0].ID != alerts[0].ID {
		t.Fatalf("live store mismatch: %+v", live)
	}

	if len(store.records) != 1 || store.records[0].ID != alerts[0].ID {
		t.Fatalf("durable store mismatch: %+v", store.records)
	}
	if store.records[0].RecordID == "" {
		t.Fatal("durable record has no record ID")
	}
	if len(sink.logged) != 1 || sink.logged[0].ID != alerts[0].ID {
		t.Fatalf("analytics sink mismatch: %+v", sink.logged)
	}
}

func TestService_AnalyzeNormalReadingWritesNothing(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	svc := newTestService(store, nil, nil)

	alerts := svc.Analyze(context.Background(), "subj-1", Reading{
		HeartRate: fp(75), SpO2: fp(98),
	})
	if len(alerts) != 0 {
		t.Fatalf("got %d alerts, want 0", len(alerts))
	}
	if len(store.records) != 0 {
		t.Fatalf("store has %d records, want 0", len(store.records))
	}
	if got := svc.Get("subj-1"); len(got) != 0 {
		t.Fatalf("live has %d alerts, want 0", len(got))
	}
}

func TestService_AnalyzeSurvivesSinkFailures(t *testing.T) {
	t.Parallel()

	store := &mockStore{saveErr: errors.New("pg down")}
	sink := &mockSink{err: errors.New("ch down")}
	svc := newTestService(store, sink, nil)

	alerts := svc.Analyze(context.Background(), "subj-1", Reading{HeartRate: fp(182)})

	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	// The live view keeps the alert even though both sinks failed.
	if got := svc.Get("subj-1"); len(got) != 1 {
		t.Fatalf("live has %d alerts, want 1", len(got))
	}
}

func TestService_NotifierOnlySeesCritical(t *testing.T) {
	t.Parallel()

	notifier := &mockNotifier{}
	svc := newTestService(nil, nil, notifier)

	svc.Analyze(context.Background(), "subj-1", Reading{HeartRate: fp(130), SpO2: fp(80)})

	if len(notifier.sent) != 1 {
		t.Fatalf("notifier got %d alerts, want 1", len(notifier.sent))
	}
	if notifier.sent[0].Kind != KindHypoxia || notifier.sent[0].Severity != SeverityCritical {
		t.Fatalf("notifier got %+v, want critical hypoxia", notifier.sent[0])
	}
}

func TestService_NotifierFailureDoesNotDropAlert(t *testing.T) {
	t.Parallel()

	notifier := &mockNotifier{err: errors.New("webhook 500")}
	svc := newTestService(nil, nil, notifier)

	alerts := svc.Analyze(context.Background(), "subj-1", Reading{HeartRate: fp(182)})
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	if got := svc.Get("subj-1"); len(got) != 1 {
		t.Fatalf("live has %d alerts, want 1", len(got))
	}
}

func TestService_QuerySources(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	store := &mockStore{records: []Record{
		{Alert: mkAlert("ALT-durable", "subj-1", base.Add(-time.Hour)), CreatedAt: base},
	}}
	svc := newTestService(store, nil, nil)
	svc.Analyze(context.Background(), "subj-1", Reading{HeartRate: fp(182)})

	live := svc.Query(context.Background(), "subj-1", SourceLive, 0)
	if len(live) != 1 {
		t.Fatalf("live source returned %d alerts, want 1", len(live))
	}

	durable := svc.Query(context.Background(), "subj-1", SourceDurable, 0)
	if len(durable) != 2 {
		t.Fatalf("durable source returned %d alerts, want 2", len(durable))
	}

	merged := svc.Query(context.Background(), "subj-1", SourceMerged, 0)
	if len(merged) != 2 {
		t.Fatalf("merged returned %d alerts, want 2 after dedup: %+v", len(merged), merged)
	}
}

func TestService_MergedDeduplicatesLiveFirst(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	liveA1 := mkAlert("ALT-1", "subj-1", base.Add(time.Minute))
	liveA1.Acknowledged = true // distinguishes the live copy from the durable one
	durA1 := Record{Alert: mkAlert("ALT-1", "subj-1", base.Add(time.Minute))}
	durA2 := Record{Alert: mkAlert("ALT-2", "subj-1", base)}

	store := &mockStore{records: []Record{durA1, durA2}}
	svc := newTestService(store, nil, nil)
	svc.live.Accumulate("subj-1", []Alert{liveA1})

	merged := svc.Query(context.Background(), "subj-1", SourceMerged, 0)
	if len(merged) != 2 {
		t.Fatalf("got %d alerts, want 2: %+v", len(merged), merged)
	}
	if merged[0].ID != "ALT-1" || merged[1].ID != "ALT-2" {
		t.Fatalf("order = [%s %s], want [ALT-1 ALT-2]", merged[0].ID, merged[1].ID)
	}
	if !merged[0].Acknowledged {
		t.Fatal("merged did not prefer the live copy of the duplicate")
	}
}

func TestService_MergedSortsDescendingAndTruncates(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	store := &mockStore{records: []Record{
		{Alert: mkAlert("ALT-old", "subj-1", base.Add(-time.Hour))},
		{Alert: mkAlert("ALT-older", "subj-1", base.Add(-2*time.Hour))},
	}}
	svc := newTestService(store, nil, nil)
	svc.live.Accumulate("subj-1", []Alert{mkAlert("ALT-new", "subj-1", base)})

	merged := svc.Query(context.Background(), "subj-1", SourceMerged, 2)
	if len(merged) != 2 {
		t.Fatalf("got %d alerts, want limit 2", len(merged))
	}
	if merged[0].ID != "ALT-new" || merged[1].ID != "ALT-old" {
		t.Fatalf("order = [%s %s], want [ALT-new ALT-old]", merged[0].ID, merged[1].ID)
	}
}

func TestService_MergedDegradesWhenDurableFails(t *testing.T) {
	t.Parallel()

	store := &mockStore{queryErr: errors.New("pg down")}
	svc := newTestService(store, nil, nil)
	svc.live.Accumulate("subj-1", []Alert{mkAlert("ALT-1", "subj-1", time.Now())})

	merged := svc.Query(context.Background(), "subj-1", SourceMerged, 0)
	if len(merged) != 1 || merged[0].ID != "ALT-1" {
		t.Fatalf("merged did not degrade to live view: %+v", merged)
	}
}

func TestService_QueryWithoutDurableStore(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil, nil, nil)
	svc.live.Accumulate("subj-1", []Alert{mkAlert("ALT-1", "subj-1", time.Now())})

	if got := svc.Query(context.Background(), "subj-1", SourceDurable, 0); len(got) != 0 {
		t.Fatalf("durable query without store returned %d alerts", len(got))
	}
	if got := svc.Query(context.Background(), "subj-1", SourceMerged, 0); len(got) != 1 {
		t.Fatalf("merged without store returned %d alerts, want 1", len(got))
	}
}

func TestService_Acknowledge(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	svc := newTestService(store, nil, nil)
	alerts := svc.Analyze(context.Background(), "subj-1", Reading{HeartRate: fp(182)})
	id := alerts[0].ID

	if !svc.Acknowledge(context.Background(), id) {
		t.Fatal("Acknowledge returned false for live alert")
	}
	if !svc.Get("subj-1")[0].Acknowledged {
		t.Fatal("live alert not acknowledged")
	}
	if len(store.acked) != 1 || store.acked[0] != id {
		t.Fatalf("durable acknowledge not attempted: %+v", store.acked)
	}

	if svc.Acknowledge(context.Background(), "ALT-missing") {
		t.Fatal("Acknowledge returned true for unknown alert")
	}
}

func TestService_AcknowledgeDurableFailureIgnored(t *testing.T) {
	t.Parallel()

	store := &mockStore{ackErr: errors.New("pg down")}
	svc := newTestService(store, nil, nil)
	alerts := svc.Analyze(context.Background(), "subj-1", Reading{HeartRate: fp(182)})

	// The live result drives the response even when the durable leg fails.
	if !svc.Acknowledge(context.Background(), alerts[0].ID) {
		t.Fatal("Acknowledge returned false despite live match")
	}
}

func TestService_ClearIsLiveOnly(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	svc := newTestService(store, nil, nil)
	svc.Analyze(context.Background(), "subj-1", Reading{HeartRate: fp(182)})

	svc.Clear("subj-1")

	if got := svc.Get("subj-1"); len(got) != 0 {
		t.Fatalf("live view has %d alerts after clear", len(got))
	}
	if got := svc.History(context.Background(), "subj-1", 0); len(got) != 1 {
		t.Fatalf("durable history lost after clear: %d alerts", len(got))
	}
}

// mockPinger reports a scripted reachability result.
type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

func TestService_Connectivity(t *testing.T) {
	t.Parallel()

	t.Run("no backends", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(nil, nil, nil)
		if svc.DurableConnected(context.Background()) {
			t.Error("DurableConnected = true without a store")
		}
		if svc.AnalyticsConnected(context.Background()) {
			t.Error("AnalyticsConnected = true without a sink")
		}
	})

	t.Run("backends reachable", func(t *testing.T) {
		t.Parallel()

		engine := NewRuleEngine(DefaultThresholds())
		svc := NewService(engine, NewIDGenerator(nil), NewLiveStore(0), nil, ServiceOptions{
			Store:     &mockStore{},
			Analytics: &mockPinger{},
		})
		if !svc.DurableConnected(context.Background()) {
			t.Error("DurableConnected = false with a reachable store")
		}
		if !svc.AnalyticsConnected(context.Background()) {
			t.Error("AnalyticsConnected = false with a reachable sink")
		}
	})

	t.Run("sink unreachable", func(t *testing.T) {
		t.Parallel()

		engine := NewRuleEngine(DefaultThresholds())
		svc := NewService(engine, NewIDGenerator(nil), NewLiveStore(0), nil, ServiceOptions{
			Analytics: &mockPinger{err: errors.New("ch down")},
		})
		if svc.AnalyticsConnected(context.Background()) {
			t.Error("AnalyticsConnected = true with a failing ping")
		}
	})
}

func TestService_ListAll(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil, nil, nil)
	svc.Analyze(context.Background(), "subj-1", Reading{HeartRate: fp(182)})
	svc.Analyze(context.Background(), "subj-2", Reading{SpO2: fp(80), HeartRate: fp(75)})

	all := svc.ListAll()
	if len(all) != 2 {
		t.Fatalf("ListAll returned %d alerts, want 2", len(all))
	}
}
