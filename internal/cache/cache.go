package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/timmy/promptgallery/internal/config"
	"github.com/timmy/promptgallery/internal/domain"
)

// Cache stores published corpus snapshots per locale.
// A cached snapshot is never patched; Set replaces it and Invalidate drops everything.
type Cache interface {
	// Get returns the snapshot of locale or domain.ErrCacheMiss.
	Get(ctx context.Context, locale string) (*domain.Snapshot, error)
	// Set publishes snap under snap.Locale.
	Set(ctx context.Context, snap *domain.Snapshot) error
	// Invalidate drops every cached snapshot.
	Invalidate(ctx context.Context) error
	// Close releases the backing resources.
	Close() error
}

const (
	TypeNone   = "none"
	TypeMemory = "memory"
	TypeRedis  = "redis"
	TypeBolt   = "bolt"
)

// New creates the cache selected by cfg.Type.
// Parameters:
//   - cfg: cache configuration.
//
// Returns:
//   - Cache: initialized cache.
//   - error: non-nil if the backend cannot be opened.
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Type {
	case TypeNone, "":
		return Nop{}, nil
	case TypeMemory:
		return NewMemory(cfg.TTL), nil
	case TypeRedis:
		return NewRedis(cfg.Redis, cfg.TTL)
	case TypeBolt:
		return NewBolt(cfg.Bolt.Path, cfg.TTL)
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (*domain.Snapshot, error) { return nil, domain.ErrCacheMiss }
func (Nop) Set(context.Context, *domain.Snapshot) error           { return nil }
func (Nop) Invalidate(context.Context) error                      { return nil }
func (Nop) Close() error                                          { return nil }

// envelope is the serialized form used by the out-of-process caches.
type envelope struct {
	ExpiresAt time.Time        `json:"expires_at"`
	Snapshot  *domain.Snapshot `json:"snapshot"`
}

func encode(snap *domain.Snapshot, ttl time.Duration) ([]byte, error) {
	env := envelope{Snapshot: snap}
	if ttl > 0 {
		env.ExpiresAt = time.Now().Add(ttl)
	}
	return json.Marshal(env)
}

func decode(raw []byte, now time.Time) (*domain.Snapshot, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode cached snapshot: %w", err)
	}
	if env.Snapshot == nil || (!env.ExpiresAt.IsZero() && now.After(env.ExpiresAt)) {
		return nil, domain.ErrCacheMiss
	}
	return env.Snapshot, nil
}
