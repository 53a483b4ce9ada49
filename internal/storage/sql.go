package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/timmy/promptgallery/internal/domain"
	"github.com/timmy/promptgallery/internal/repository"
)

// SQLStorage keeps data files as rows of the prompt_documents table.
type SQLStorage struct {
	docs      *repository.DocumentRepository
	publicURL string
}

// NewSQLStorage creates an SQLStorage backed by docs.
// publicURL prefixes relative image paths; the table holds only data files.
func NewSQLStorage(docs *repository.DocumentRepository, publicURL string) *SQLStorage {
	return &SQLStorage{docs: docs, publicURL: publicURL}
}

func (s *SQLStorage) List(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.docs.ListKeys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return keys, nil
}

func (s *SQLStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	doc, err := s.docs.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(doc.Body)), nil
}

func (s *SQLStorage) Upload(ctx context.Context, key string, reader io.Reader, _ int64, contentType string) error {
	body, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read upload body: %w", err)
	}
	return s.docs.Upsert(ctx, &domain.Document{
		Key:         key,
		Body:        body,
		ContentType: contentType,
	})
}

// Counts returns the number of stored data files per locale.
func (s *SQLStorage) Counts(ctx context.Context) (map[string]int64, error) {
	counts, err := s.docs.CountByLocale(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	return counts, nil
}

// Prune deletes every document under prefix whose key is not in keep.
// Returns the deleted keys in key order.
func (s *SQLStorage) Prune(ctx context.Context, prefix string, keep map[string]struct{}) ([]string, error) {
	keys, err := s.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var deleted []string
	for _, key := range keys {
		if _, ok := keep[key]; ok {
			continue
		}
		if err := s.docs.Delete(ctx, key); err != nil {
			return deleted, fmt.Errorf("failed to delete %s: %w", key, err)
		}
		deleted = append(deleted, key)
	}
	return deleted, nil
}

func (s *SQLStorage) GetURL(key string) string {
	return joinURL(s.publicURL, key)
}
