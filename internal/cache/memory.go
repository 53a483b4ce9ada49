package cache

import (
	"context"
	"sync"
	"time"

	"github.com/timmy/promptgallery/internal/domain"
)

type memoryEntry struct {
	snap      *domain.Snapshot
	expiresAt time.Time
}

// Memory is a process-local cache. Snapshots are shared by pointer and
// must be treated as read-only by every reader.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates a Memory cache; ttl <= 0 keeps entries until invalidated.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, locale string) (*domain.Snapshot, error) {
	m.mu.RLock()
	e, ok := m.entries[locale]
	m.mu.RUnlock()

	if !ok || (!e.expiresAt.IsZero() && m.now().After(e.expiresAt)) {
		return nil, domain.ErrCacheMiss
	}
	return e.snap, nil
}

func (m *Memory) Set(_ context.Context, snap *domain.Snapshot) error {
	e := memoryEntry{snap: snap}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[snap.Locale] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Invalidate(context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
