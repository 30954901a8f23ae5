package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// sweepInterval bounds how often writes scan for expired entries.
const sweepInterval = time.Minute

// MemoryStore is a thread-safe in-memory Store and TransactionStore.
// Sessions do not survive a restart; use RedisStore for anything shared.
// Expired entries are dropped on read and by a sweep piggybacked on writes.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]memoryEntry[Session]
	txns      map[string]memoryEntry[Transaction]
	clock     func() time.Time
	lastSweep time.Time
}

type memoryEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry[Session]),
		txns:     make(map[string]memoryEntry[Transaction]),
		clock:    time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if !e.expiresAt.After(m.clock()) {
		_ = m.Delete(ctx, id)
		return nil, ErrNotFound
	}
	s := e.value
	return &s, nil
}

func (m *MemoryStore) Save(ctx context.Context, s *Session, ttl time.Duration) error {
	if s == nil || s.ID == "" {
		return errors.New("session: id is required")
	}
	if ttl <= 0 {
		return errors.New("session: ttl must be > 0")
	}
	now := m.clock()
	m.mu.Lock()
	m.sweepLocked(now)
	m.sessions[s.ID] = memoryEntry[Session]{value: *s, expiresAt: now.Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) PutTransaction(ctx context.Context, t Transaction, ttl time.Duration) error {
	if t.State == "" {
		return errors.New("session: transaction state is required")
	}
	if ttl <= 0 {
		return errors.New("session: ttl must be > 0")
	}
	now := m.clock()
	m.mu.Lock()
	m.sweepLocked(now)
	m.txns[t.State] = memoryEntry[Transaction]{value: t, expiresAt: now.Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) TakeTransaction(ctx context.Context, state string) (Transaction, error) {
	m.mu.Lock()
	e, ok := m.txns[state]
	if ok {
		delete(m.txns, state)
	}
	m.mu.Unlock()
	if !ok || !e.expiresAt.After(m.clock()) {
		return Transaction{}, ErrNotFound
	}
	return e.value, nil
}

// sweepLocked drops expired sessions and transactions at most once per
// sweepInterval. m.mu must be held for writing.
func (m *MemoryStore) sweepLocked(now time.Time) {
	if now.Sub(m.lastSweep) < sweepInterval {
		return
	}
	m.lastSweep = now
	for id, e := range m.sessions {
		if !e.expiresAt.After(now) {
			delete(m.sessions, id)
		}
	}
	for state, e := range m.txns {
		if !e.expiresAt.After(now) {
			delete(m.txns, state)
		}
	}
}
