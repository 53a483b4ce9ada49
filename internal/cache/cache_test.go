package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/promptgallery/internal/config"
	"github.com/timmy/promptgallery/internal/domain"
)

func snapshot(locale, version string) *domain.Snapshot {
	return &domain.Snapshot{
		Locale:   locale,
		Version:  version,
		LoadedAt: time.Now().UTC().Truncate(time.Second),
		Prompts: []domain.Prompt{
			{ID: "a-1", Slug: "a-case-1", CaseNumber: 1, Title: "A", Categories: []string{"人像"}},
		},
	}
}

func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	_, err := c.Get(ctx, "en")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, snapshot("en", "v1")))
	require.NoError(t, c.Set(ctx, snapshot("zh", "v1")))

	got, err := c.Get(ctx, "en")
	require.NoError(t, err)
	assert.Equal(t, "v1", got.Version)
	require.Len(t, got.Prompts, 1)
	assert.Equal(t, []string{"人像"}, got.Prompts[0].Categories)

	require.NoError(t, c.Set(ctx, snapshot("en", "v2")))
	got, err = c.Get(ctx, "en")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Version)

	require.NoError(t, c.Invalidate(ctx))
	for _, locale := range []string{"en", "zh"} {
		_, err = c.Get(ctx, locale)
		assert.ErrorIs(t, err, domain.ErrCacheMiss, locale)
	}
}

func TestMemory(t *testing.T) {
	exerciseCache(t, NewMemory(time.Minute))
}

func TestMemory_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, snapshot("en", "v1")))
	_, err := m.Get(ctx, "en")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = m.Get(ctx, "en")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestBolt(t *testing.T) {
	b, err := NewBolt(filepath.Join(t.TempDir(), "cache", "snapshots.db"), time.Minute)
	require.NoError(t, err)
	defer b.Close()
	exerciseCache(t, b)
}

func TestBolt_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	b, err := NewBolt(path, 0)
	require.NoError(t, err)
	require.NoError(t, b.Set(context.Background(), snapshot("en", "persisted")))
	require.NoError(t, b.Close())

	b, err = NewBolt(path, 0)
	require.NoError(t, err)
	defer b.Close()
	got, err := b.Get(context.Background(), "en")
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Version)
}

func TestDecode_Expired(t *testing.T) {
	raw, err := encode(snapshot("en", "v1"), time.Second)
	require.NoError(t, err)
	_, err = decode(raw, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestNew(t *testing.T) {
	c, err := New(config.CacheConfig{Type: TypeNone})
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "en")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	c, err = New(config.CacheConfig{Type: TypeMemory, TTL: time.Minute})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)

	_, err = New(config.CacheConfig{Type: "memcached"})
	assert.Error(t, err)
}
