// Package dedupe tracks which (person, day) pairs already produced a check-in.
package dedupe

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// keySep cannot appear in a formatted day, so keys stay unambiguous.
const keySep = "|"

// Deduper records seen keys so that each key is accepted at most once.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool
	// Seen reports whether key was recorded without recording it.
	Seen(ctx context.Context, key string) bool
	Size() int64
}

// DayKey builds the dedup key for a person and the calendar day of t.
func DayKey(person string, t time.Time) string {
	var b strings.Builder
	b.Grow(len(person) + len(keySep) + len("2006-01-02"))
	b.WriteString(person)
	b.WriteString(keySep)
	b.WriteString(t.Format("2006-01-02"))
	return b.String()
}

// inMemoryDeduper is an unbounded set; the tracked data is a few hundred
// weeks times tens of people, so nothing is ever evicted.
type inMemoryDeduper struct {
	mu       sync.RWMutex
	seen     map[string]struct{}
	size     atomic.Int64
	capacity int
	seed     []string
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{}, max(d.capacity, len(d.seed)))
	for _, k := range d.seed {
		if _, ok := d.seen[k]; !ok {
			d.seen[k] = struct{}{}
			d.size.Add(1)
		}
	}
	d.seed = nil
	return d
}

// SeenAndRecord atomically checks if key was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		return true
	}
	d.seen[key] = struct{}{}
	d.size.Add(1)
	return false
}

// Seen reports whether key was recorded.
func (d *inMemoryDeduper) Seen(_ context.Context, key string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, exists := d.seen[key]
	return exists
}

// Size returns the current number of recorded keys.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
