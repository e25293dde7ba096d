package limiter

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	fails        int
	updatedAt    time.Time
	blockedUntil time.Time
}

// maxMemEntries bounds the map before stale entries are swept.
const maxMemEntries = 10000

// Memory is an in-process Limiter with the same policy semantics as PG.
type Memory struct {
	mu      sync.Mutex
	policy  Policy
	now     func() time.Time
	limit   int
	entries map[string]*memEntry
}

// NewMemory constructs an in-process limiter.
func NewMemory(p Policy) *Memory {
	return &Memory{policy: p, now: time.Now, limit: maxMemEntries, entries: make(map[string]*memEntry)}
}

// sweep drops entries that are neither blocked nor inside the window.
// If that frees nothing the oldest entry goes. Caller holds mu.
func (m *Memory) sweep(now time.Time) {
	var oldest string
	var oldestAt time.Time
	for k, e := range m.entries {
		if !e.blockedUntil.After(now) && now.Sub(e.updatedAt) > m.policy.Window {
			delete(m.entries, k)
			continue
		}
		if oldest == "" || e.updatedAt.Before(oldestAt) {
			oldest, oldestAt = k, e.updatedAt
		}
	}
	if len(m.entries) >= m.limit && oldest != "" {
		delete(m.entries, oldest)
	}
}

func memKey(email string, ipHash []byte) string { return email + "\x00" + string(ipHash) }

// Allow reports whether login is currently allowed and a retry-after duration.
func (m *Memory) Allow(_ context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[memKey(email, ipHash)]
	if !ok {
		return true, 0, nil
	}
	if wait := e.blockedUntil.Sub(m.now()); wait > 0 {
		return false, wait, nil
	}
	return true, 0, nil
}

// Success resets counters for (email, ip).
func (m *Memory) Success(_ context.Context, email string, ipHash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, memKey(email, ipHash))
	return nil
}

// Failure records a failed attempt; may set a block until a future time.
func (m *Memory) Failure(_ context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	k := memKey(email, ipHash)
	e, ok := m.entries[k]
	if !ok {
		if len(m.entries) >= m.limit {
			m.sweep(now)
		}
		e = &memEntry{}
		m.entries[k] = e
	}
	if now.Sub(e.updatedAt) > m.policy.Window {
		e.fails = 0
	}
	e.fails++
	e.updatedAt = now
	if e.fails < m.policy.MaxFails {
		return false, 0, nil
	}
	e.blockedUntil = now.Add(m.policy.BlockFor)
	return true, m.policy.BlockFor, nil
}
