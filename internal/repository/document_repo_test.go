package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/promptgallery/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func TestDocumentRepository_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(newTestDB(t))

	require.NoError(t, repo.Upsert(ctx, &domain.Document{Key: "en/a.json", Body: []byte(`{"id":"a"}`)}))
	doc, err := repo.GetByKey(ctx, "en/a.json")
	require.NoError(t, err)
	assert.Equal(t, "en", doc.Locale)
	assert.Equal(t, int64(10), doc.Size)

	require.NoError(t, repo.Upsert(ctx, &domain.Document{Key: "en/a.json", Body: []byte(`{"id":"a2"}`)}))
	doc, err = repo.GetByKey(ctx, "en/a.json")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"a2"}`, string(doc.Body))

	_, err = repo.GetByKey(ctx, "en/missing.json")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentRepository_ListKeys(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(newTestDB(t))

	for _, key := range []string{"zh/b.json", "en/b.json", "en/a.json", "en_old/c.json"} {
		require.NoError(t, repo.Upsert(ctx, &domain.Document{Key: key, Body: []byte("{}")}))
	}

	keys, err := repo.ListKeys(ctx, "en/")
	require.NoError(t, err)
	assert.Equal(t, []string{"en/a.json", "en/b.json"}, keys)

	all, err := repo.ListKeys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	counts, err := repo.CountByLocale(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts["en"])
	assert.Equal(t, int64(1), counts["zh"])

	require.NoError(t, repo.Delete(ctx, "en/a.json"))
	keys, err = repo.ListKeys(ctx, "en/")
	require.NoError(t, err)
	assert.Equal(t, []string{"en/b.json"}, keys)
}
