package limiter

import (
	"context"
	"encoding/hex"
	"sync"
	"time"
)

// Memory is an in-process limiter with a sliding failure window and lockout.
// Expired state is pruned lazily on access; no background goroutines.
type Memory struct {
	window   time.Duration
	maxFails int
	blockFor time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	fails        []time.Time
	blockedUntil time.Time
}

// NewMemory constructs an in-memory limiter. A login is blocked for blockFor
// once maxFails failures accumulate within window.
func NewMemory(window time.Duration, maxFails int, blockFor time.Duration) *Memory {
	return &Memory{
		window:   window,
		maxFails: maxFails,
		blockFor: blockFor,
		now:      time.Now,
		entries:  make(map[string]*entry),
	}
}

// WithClock overrides the time source. Test use only.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func key(identifier string, ipHash []byte) string {
	return identifier + "|" + hex.EncodeToString(ipHash)
}

// prune drops failures older than the window. Callers hold the lock.
func (m *Memory) prune(e *entry, now time.Time) {
	cutoff := now.Add(-m.window)
	kept := e.fails[:0]
	for _, t := range e.fails {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	e.fails = kept
}

// Allow reports whether login is currently allowed and a retry-after duration.
func (m *Memory) Allow(_ context.Context, identifier string, ipHash []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key(identifier, ipHash)]
	if !ok {
		return true, 0, nil
	}
	now := m.now()
	if e.blockedUntil.After(now) {
		return false, e.blockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

// Success resets counters after a successful login.
func (m *Memory) Success(_ context.Context, identifier string, ipHash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key(identifier, ipHash))
	return nil
}

// Failure records a failed attempt and reports whether a block was placed.
func (m *Memory) Failure(_ context.Context, identifier string, ipHash []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(identifier, ipHash)
	e, ok := m.entries[k]
	if !ok {
		e = &entry{}
		m.entries[k] = e
	}
	now := m.now()
	m.prune(e, now)
	e.fails = append(e.fails, now)
	if len(e.fails) >= m.maxFails {
		e.blockedUntil = now.Add(m.blockFor)
		e.fails = e.fails[:0]
		return true, m.blockFor, nil
	}
	return false, 0, nil
}
