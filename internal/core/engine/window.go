package engine

import (
	"context"
	"time"

	"github.com/routelens/routelens/internal/core"
)

// WindowStore persists successful send times so several processes sharing one
// API key observe a common quota.
type WindowStore interface {
	// LoadSendTimes returns up to limit of the most recent sends, oldest first.
	LoadSendTimes(ctx context.Context, scope string, limit int) ([]time.Time, error)

	// RecordSend stores a send time and prunes all but the newest keep entries.
	RecordSend(ctx context.Context, scope string, at time.Time, keep int) error
}

// SendWindow is a fixed-capacity ring of the most recent successful send times.
// It is not safe for concurrent use; Client guards it.
type SendWindow struct {
	times []time.Time
	next  int
	full  bool
}

// NewSendWindow returns an empty window holding capacity entries.
func NewSendWindow(capacity int) *SendWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &SendWindow{times: make([]time.Time, capacity)}
}

// Capacity is the number of sends the window remembers.
func (w *SendWindow) Capacity() int {
	return len(w.times)
}

// Len is the number of sends currently recorded.
func (w *SendWindow) Len() int {
	if w.full {
		return len(w.times)
	}
	return w.next
}

// Record appends a send time, evicting the oldest entry when full.
func (w *SendWindow) Record(at time.Time) {
	w.times[w.next] = at
	w.next++
	if w.next == len(w.times) {
		w.next = 0
		w.full = true
	}
}

// Oldest returns the oldest recorded send.
func (w *SendWindow) Oldest() (time.Time, bool) {
	switch {
	case w.full:
		return w.times[w.next], true
	case w.next > 0:
		return w.times[0], true
	}
	return time.Time{}, false
}

// Wait reports how long a send at now has to wait to stay within the quota.
// Only a full window can impose a wait.
func (w *SendWindow) Wait(now time.Time) time.Duration {
	if !w.full {
		return 0
	}
	oldest := w.times[w.next]
	elapsed := now.Sub(oldest)
	if elapsed >= core.QuotaWindow {
		return 0
	}
	return core.QuotaWindow - elapsed
}

// Snapshot returns recorded sends, oldest first.
func (w *SendWindow) Snapshot() []time.Time {
	out := make([]time.Time, 0, w.Len())
	if w.full {
		out = append(out, w.times[w.next:]...)
	}
	out = append(out, w.times[:w.next]...)
	return out
}

// Seed records times in order, typically loaded from a WindowStore.
func (w *SendWindow) Seed(times []time.Time) {
	for _, at := range times {
		w.Record(at)
	}
}
