// Package ringbuf provides a fixed-capacity overwrite ring of refresh
// cycle records. When full, the oldest record is dropped; the ring is
// a bounded ops history, never a delivery queue.
package ringbuf

import (
	"sync"

	"chartlens/internal/model"
)

// Ring is a concurrency-safe ring of CycleRecord values.
// Capacity is rounded up to a power of two for fast bitwise modulo.
type Ring struct {
	mu   sync.RWMutex
	buf  []model.CycleRecord
	mask uint64
	head uint64 // total records ever pushed
}

// New creates a ring buffer. capacity is rounded up to the next power
// of two. Minimum capacity is 2.
func New(capacity int) *Ring {
	cap := nextPow2(capacity)
	if cap < 2 {
		cap = 2
	}
	return &Ring{
		buf:  make([]model.CycleRecord, cap),
		mask: uint64(cap - 1),
	}
}

// Push appends a record, overwriting the oldest when full.
func (r *Ring) Push(rec model.CycleRecord) {
	r.mu.Lock()
	r.buf[r.head&r.mask] = rec
	r.head++
	r.mu.Unlock()
}

// Snapshot returns the retained records in chronological order.
func (r *Ring) Snapshot() []model.CycleRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.head
	if n > uint64(len(r.buf)) {
		n = uint64(len(r.buf))
	}
	out := make([]model.CycleRecord, 0, n)
	for i := r.head - n; i < r.head; i++ {
		out = append(out, r.buf[i&r.mask])
	}
	return out
}

// Len returns the number of retained records.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.head > uint64(len(r.buf)) {
		return len(r.buf)
	}
	return int(r.head)
}

// Cap returns the ring capacity.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// nextPow2 returns the smallest power of 2 >= n.
func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
