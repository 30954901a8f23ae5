package audit

import (
	"context"
	"sync"
)

// MemoryRepo keeps the most recent auth events in process memory. It backs
// the console when AUDIT_DATABASE_URL is unset; older events are dropped once
// limit is reached.
type MemoryRepo struct {
	mu     sync.Mutex
	limit  int
	events []Event
}

// NewMemoryRepo keeps at most limit events. limit <= 0 keeps everything.
func NewMemoryRepo(limit int) *MemoryRepo { return &MemoryRepo{limit: limit} }

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if r.limit > 0 && len(r.events) > r.limit {
		n := copy(r.events, r.events[len(r.events)-r.limit:])
		clear(r.events[n:])
		r.events = r.events[:n]
	}
	return nil
}

// snapshot returns the retained events, oldest first.
func (r *MemoryRepo) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
