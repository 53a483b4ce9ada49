package storage

import (
	"context"
	"io"
	"strings"
)

// ObjectStorage is a keyed store of raw data files.
// Keys are slash-separated paths such as "en/portraits.json".
type ObjectStorage interface {
	// List returns every key starting with prefix, in ascending key order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Download opens the object stored under key.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Upload stores an object under key, replacing any previous content.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// GetURL returns the public URL for an object key.
	GetURL(key string) string
}

// joinURL joins a base URL and an object key with exactly one slash.
func joinURL(base, key string) string {
	key = strings.TrimLeft(key, "/")
	if base == "" {
		return "/" + key
	}
	return strings.TrimRight(base, "/") + "/" + key
}
