// Package journal keeps a bounded in-memory record of recent log lines
// so operators can inspect them over the API without shipping logs
// anywhere.
package journal

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const DefaultCapacity = 256

type Entry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// Ring holds the most recent entries, dropping the oldest once full.
type Ring struct {
	mu      sync.Mutex
	entries []Entry
	head    int
	count   int
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{entries: make([]Entry, capacity)}
}

func (r *Ring) Append(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.head] = e
	r.head = (r.head + 1) % len(r.entries)
	if r.count < len(r.entries) {
		r.count++
	}
}

// Snapshot returns the retained entries, oldest first.
func (r *Ring) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, 0, r.count)
	start := r.head - r.count
	if start < 0 {
		start += len(r.entries)
	}
	for i := 0; i < r.count; i++ {
		out = append(out, r.entries[(start+i)%len(r.entries)])
	}
	return out
}

func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Hook feeds logged events into a Ring. Attach it to the global logger
// once at startup.
type Hook struct {
	ring *Ring
}

var _ zerolog.Hook = Hook{}

func NewHook(ring *Ring) Hook {
	return Hook{ring: ring}
}

func (h Hook) Run(e *zerolog.Event, level zerolog.Level, message string) {
	if h.ring == nil || level == zerolog.NoLevel || message == "" {
		return
	}
	h.ring.Append(Entry{
		Time:    time.Now().UTC(),
		Level:   level.String(),
		Message: message,
	})
}
