// Package logging keeps a bounded history of compile events and fans new
// ones out to subscribers.
package logging

import (
	"sync"
	"time"

	"github.com/psaab/cmdgraph/pkg/compiler"
)

// EventRecord is one compilation attempt.
type EventRecord struct {
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Command string    `json:"command"`
	Outcome string    `json:"outcome"` // "compiled", "syntax", "malformed_range", "duplicate"
	Error   string    `json:"error,omitempty"`
}

// EventBuffer is a thread-safe circular buffer for recent compile events.
// It implements compiler.Observer.
type EventBuffer struct {
	mu     sync.RWMutex
	buf    []EventRecord
	size   int
	head   int // next write position
	count  int // number of events stored
	seq    uint64
	totals map[string]uint64 // outcome -> count, never wraps

	subMu sync.RWMutex
	subs  map[*Subscription]struct{}
}

var _ compiler.Observer = (*EventBuffer)(nil)

// Subscription receives new events from an EventBuffer.
type Subscription struct {
	C  chan EventRecord
	eb *EventBuffer
}

// Close unsubscribes. The channel is left open so a concurrent Add never
// sends on a closed channel.
func (s *Subscription) Close() {
	s.eb.unsubscribe(s)
}

// NewEventBuffer creates a new event buffer with the given capacity.
func NewEventBuffer(size int) *EventBuffer {
	if size < 1 {
		size = 1
	}
	return &EventBuffer{
		buf:    make([]EventRecord, size),
		size:   size,
		totals: make(map[string]uint64),
		subs:   make(map[*Subscription]struct{}),
	}
}

// Compiled records the outcome of one compilation.
func (eb *EventBuffer) Compiled(command string, err error) {
	rec := EventRecord{
		Time:    time.Now(),
		Command: command,
		Outcome: compiler.Outcome(err),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	eb.Add(rec)
}

// Add appends an event to the buffer, overwriting the oldest if full, and
// assigns its sequence number. Subscribers are notified non-blocking.
func (eb *EventBuffer) Add(rec EventRecord) {
	eb.mu.Lock()
	eb.seq++
	rec.Seq = eb.seq
	eb.buf[eb.head] = rec
	eb.head = (eb.head + 1) % eb.size
	if eb.count < eb.size {
		eb.count++
	}
	eb.totals[rec.Outcome]++
	eb.mu.Unlock()

	eb.subMu.RLock()
	for sub := range eb.subs {
		select {
		case sub.C <- rec:
		default: // drop if subscriber is slow
		}
	}
	eb.subMu.RUnlock()
}

// Subscribe returns a Subscription that receives new events.
// Call Close() on the subscription when done.
func (eb *EventBuffer) Subscribe(bufSize int) *Subscription {
	if bufSize < 1 {
		bufSize = 64
	}
	sub := &Subscription{
		C:  make(chan EventRecord, bufSize),
		eb: eb,
	}
	eb.subMu.Lock()
	eb.subs[sub] = struct{}{}
	eb.subMu.Unlock()
	return sub
}

func (eb *EventBuffer) unsubscribe(sub *Subscription) {
	eb.subMu.Lock()
	delete(eb.subs, sub)
	eb.subMu.Unlock()
}

// Totals returns the number of events seen per outcome since creation.
func (eb *EventBuffer) Totals() map[string]uint64 {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	out := make(map[string]uint64, len(eb.totals))
	for k, v := range eb.totals {
		out[k] = v
	}
	return out
}

// Latest returns the most recent n events, newest first.
func (eb *EventBuffer) Latest(n int) []EventRecord {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if n > eb.count {
		n = eb.count
	}
	if n <= 0 {
		return nil
	}

	result := make([]EventRecord, n)
	for i := 0; i < n; i++ {
		idx := (eb.head - 1 - i + eb.size) % eb.size
		result[i] = eb.buf[idx]
	}
	return result
}

// LatestFailed returns up to n most recent rejected compilations, newest first.
func (eb *EventBuffer) LatestFailed(n int) []EventRecord {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if n <= 0 {
		return nil
	}
	var result []EventRecord
	for i := 0; i < eb.count && len(result) < n; i++ {
		idx := (eb.head - 1 - i + eb.size) % eb.size
		if eb.buf[idx].Error != "" {
			result = append(result, eb.buf[idx])
		}
	}
	return result
}
