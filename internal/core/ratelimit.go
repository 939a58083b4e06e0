package core

import "time"

// QuotaWindow is the trailing window a per-minute quota applies to.
const QuotaWindow = time.Minute

// QuotaState summarizes the persisted send window for one scope.
type QuotaState struct {
	Scope    string      `json:"scope"`
	Sent     []time.Time `json:"sent"`
	Capacity int         `json:"capacity,omitempty"`
}

// InWindow counts sends newer than now minus QuotaWindow.
func (s QuotaState) InWindow(now time.Time) int {
	cutoff := now.Add(-QuotaWindow)
	count := 0
	for _, sent := range s.Sent {
		if sent.After(cutoff) {
			count++
		}
	}
	return count
}

// NextSlot reports when the next send may proceed. A zero time means a send is
// allowed immediately.
func (s QuotaState) NextSlot(now time.Time) time.Time {
	if s.Capacity <= 0 || len(s.Sent) < s.Capacity {
		return time.Time{}
	}
	oldest := s.Sent[len(s.Sent)-s.Capacity]
	free := oldest.Add(QuotaWindow)
	if !free.After(now) {
		return time.Time{}
	}
	return free
}
