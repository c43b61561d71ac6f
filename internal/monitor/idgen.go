package monitor

import (
	"fmt"
	"sync"
	"time"
)

// IDGenerator issues process-unique, time-ordered alert IDs of the form
// ALT-<YYYYMMDD>-<sequence>. The sequence is monotonic for the process
// lifetime, so an ID is never reused even across date rollovers.
type IDGenerator struct {
	mu  sync.Mutex
	seq uint64
	now func() time.Time
}

// NewIDGenerator creates a generator using the given clock.
// A nil clock defaults to time.Now.
func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns the next alert ID.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("ALT-%s-%05d", g.now().Format("20060102"), g.seq)
}
