// Package dedupe tracks which captures already have a deferred evaluation
// scheduled, guaranteeing at-most-once scheduling per capture.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen ids to ensure at-most-once scheduling.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an id from the seen set, allowing a retry. Use this
	// when an id was marked seen but the follow-up action failed (e.g.
	// queue backpressure).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper implements Deduper with a bounded map. When the bound is
// reached the oldest recorded ids are evicted in insertion order, which is
// good enough here: captures awaiting a deferred evaluation are short-lived.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]uint64 // id -> insertion sequence
	seq     uint64
	maxSize int
	size    atomic.Int64
}

const defaultMaxSize = 10000

// NewInMemoryDeduper creates an in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		seen:    make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldestLocked()
	}

	d.seq++
	d.seen[id] = d.seq
	d.size.Add(1)
	return false
}

// Unrecord removes an id from the seen set.
func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		delete(d.seen, id)
		d.size.Add(-1)
	}
}

// Size returns the current number of recorded ids.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

// evictOldestLocked removes the entry with the smallest insertion sequence.
// Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldestLocked() {
	var (
		oldestID  string
		oldestSeq uint64
		found     bool
	)
	for id, seq := range d.seen {
		if !found || seq < oldestSeq {
			oldestID, oldestSeq, found = id, seq, true
		}
	}
	if found {
		delete(d.seen, oldestID)
		d.size.Add(-1)
	}
}
