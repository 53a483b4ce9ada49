package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/timmy/promptgallery/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentRepository stores raw prompt data files keyed by their storage path.
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new DocumentRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *DocumentRepository: repository instance bound to db.
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Upsert creates or replaces a document keyed by Key.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - doc: document to create or update; Locale is derived from Key when empty.
//
// Returns:
//   - error: non-nil if the upsert fails.
func (r *DocumentRepository) Upsert(ctx context.Context, doc *domain.Document) error {
	if doc.Key == "" {
		return fmt.Errorf("document key is required")
	}
	if doc.Locale == "" {
		doc.Locale = localeOf(doc.Key)
	}
	doc.Size = int64(len(doc.Body))
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"locale", "body", "content_type", "size", "updated_at"}),
	}).Create(doc).Error
}

// GetByKey retrieves a document by its key.
// Returns domain.ErrNotFound when no document has that key.
func (r *DocumentRepository) GetByKey(ctx context.Context, key string) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("document %q: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListKeys returns the keys starting with prefix in ascending order.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - prefix: key prefix; empty lists every document.
//
// Returns:
//   - []string: matching keys.
//   - error: non-nil if the query fails.
func (r *DocumentRepository) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	q := r.db.WithContext(ctx).Model(&domain.Document{})
	if prefix != "" {
		q = q.Where("key LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%")
	}
	if err := q.Order("key ASC").Pluck("key", &keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// CountByLocale returns the number of documents stored per locale.
func (r *DocumentRepository) CountByLocale(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Locale string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&domain.Document{}).
		Select("locale, COUNT(*) AS count").
		Group("locale").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Locale] = row.Count
	}
	return out, nil
}

// Delete removes a document by key. Deleting a missing key is not an error.
func (r *DocumentRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&domain.Document{}).Error
}

func localeOf(key string) string {
	if i := strings.IndexByte(key, '/'); i > 0 {
		return key[:i]
	}
	return ""
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
