package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/promptgallery/internal/domain"
	"github.com/timmy/promptgallery/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestNewStorage(t *testing.T) {
	s, err := NewStorage(Options{Backend: BackendLocal, Root: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	_, err = NewStorage(Options{Backend: BackendS3})
	assert.Error(t, err)

	_, err = NewStorage(Options{Backend: "ftp"})
	assert.Error(t, err)
}

func TestDetectStorageType(t *testing.T) {
	assert.Equal(t, StorageTypeR2, detectStorageType("https://abc.r2.cloudflarestorage.com"))
	assert.Equal(t, StorageTypeS3, detectStorageType("s3.us-west-2.amazonaws.com"))
	assert.Equal(t, StorageTypeS3Compatible, detectStorageType("localhost:9000"))
	assert.Equal(t, "localhost:9000", normalizeEndpoint("http://localhost:9000/bucket/"))
	assert.Equal(t, "prompts/", normalizePrefix("/prompts/"))
	assert.Equal(t, "", normalizePrefix(""))
}

func TestSQLStorage(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	require.NoError(t, repository.Migrate(db))

	s, err := NewStorage(Options{
		Backend:   BackendSQL,
		Documents: repository.NewDocumentRepository(db),
		PublicURL: "https://assets.example.com",
	})
	require.NoError(t, err)
	ctx := context.Background()

	body := `{"id":"sql-1"}`
	require.NoError(t, s.Upload(ctx, "en/sql.json", strings.NewReader(body), int64(len(body)), "application/json"))

	keys, err := s.List(ctx, "en/")
	require.NoError(t, err)
	assert.Equal(t, []string{"en/sql.json"}, keys)

	rc, err := s.Download(ctx, "en/sql.json")
	require.NoError(t, err)
	buf := new(strings.Builder)
	_, _ = io.Copy(buf, rc)
	assert.Equal(t, body, buf.String())

	_, err = s.Download(ctx, "en/none.json")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "https://assets.example.com/img/a.png", s.GetURL("img/a.png"))
}

func TestSQLStorage_PruneAndCounts(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	require.NoError(t, repository.Migrate(db))

	s := NewSQLStorage(repository.NewDocumentRepository(db), "")
	ctx := context.Background()
	for _, key := range []string{"en/a.json", "en/b.json", "en/c.json", "zh/a.json"} {
		require.NoError(t, s.Upload(ctx, key, strings.NewReader(`{"id":"x"}`), 10, "application/json"))
	}

	deleted, err := s.Prune(ctx, "en/", map[string]struct{}{"en/b.json": {}})
	require.NoError(t, err)
	assert.Equal(t, []string{"en/a.json", "en/c.json"}, deleted)

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"en": 1, "zh": 1}, counts)

	deleted, err = s.Prune(ctx, "en/", map[string]struct{}{"en/b.json": {}})
	require.NoError(t, err)
	assert.Empty(t, deleted)
}
