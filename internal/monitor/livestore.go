package monitor

import (
	"sort"
	"sync"
)

// DefaultHistoryCap is the per-subject retention limit for the live store.
const DefaultHistoryCap = 50

// LiveStore is the volatile per-subject alert history. It is best-effort:
// it starts empty after a restart and the durable store remains the owner
// of record. All operations are in-memory and never fail; unknown subjects
// and alert IDs surface as empty results or false.
type LiveStore struct {
	mu      sync.RWMutex
	cap     int
	history map[string][]*Alert // subject ID -> alerts, most recent first
}

// NewLiveStore creates a store with the given per-subject cap.
// A cap <= 0 falls back to DefaultHistoryCap.
func NewLiveStore(capacity int) *LiveStore {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &LiveStore{
		cap:     capacity,
		history: make(map[string][]*Alert),
	}
}

// Accumulate prepends alerts to the subject's history in the order the rule
// engine produced them, then truncates to the cap. An empty batch is a no-op
// and never clears or reorders existing history.
func (s *LiveStore) Accumulate(subjectID string, alerts []Alert) {
	if len(alerts) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.history[subjectID]
	merged := make([]*Alert, 0, len(alerts)+len(existing))
	for i := range alerts {
		cp := alerts[i]
		merged = append(merged, &cp)
	}
	merged = append(merged, existing...)
	if len(merged) > s.cap {
		merged = merged[:s.cap]
	}
	s.history[subjectID] = merged
}

// Get returns a copy of the subject's history, most recent first.
func (s *LiveStore) Get(subjectID string) []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alerts := s.history[subjectID]
	out := make([]Alert, len(alerts))
	for i, a := range alerts {
		out[i] = *a
	}
	return out
}

// GetAll returns every subject's alerts sorted by timestamp descending.
// The sort is stable so equal timestamps keep a deterministic order.
func (s *LiveStore) GetAll() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subjects := make([]string, 0, len(s.history))
	for id := range s.history {
		subjects = append(subjects, id)
	}
	sort.Strings(subjects)

	var out []Alert
	for _, id := range subjects {
		for _, a := range s.history[id] {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Acknowledge marks the first alert with the given ID as acknowledged and
// reports whether a match was found. IDs are generated from a monotonic
// counter so at most one alert can match.
func (s *LiveStore) Acknowledge(alertID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, alerts := range s.history {
		for _, a := range alerts {
			if a.ID == alertID {
				a.Acknowledged = true
				return true
			}
		}
	}
	return false
}

// Clear drops the subject's entire history.
func (s *LiveStore) Clear(subjectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, subjectID)
}

// Len reports the total number of retained alerts across all subjects.
func (s *LiveStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, alerts := range s.history {
		n += len(alerts)
	}
	return n
}
