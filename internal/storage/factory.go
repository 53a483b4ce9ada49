package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/timmy/promptgallery/internal/config"
	"github.com/timmy/promptgallery/internal/repository"
)

// Backend names a data source implementation.
type Backend string

const (
	BackendLocal Backend = "local"
	BackendS3    Backend = "s3"
	BackendHTTP  Backend = "http"
	BackendSQL   Backend = "sql"
)

// Options selects and configures a backend. Only the section matching
// Backend is read.
type Options struct {
	Backend Backend

	// local
	Root      string
	PublicURL string

	S3   *S3Config
	HTTP *HTTPConfig

	// sql
	Documents *repository.DocumentRepository
}

// NewStorage creates an ObjectStorage instance based on the configuration.
// Parameters:
//   - opts: backend selection and its settings.
//
// Returns:
//   - ObjectStorage: initialized storage implementation.
//   - error: non-nil if the backend is unknown or cannot be created.
func NewStorage(opts Options) (ObjectStorage, error) {
	switch opts.Backend {
	case BackendLocal, "":
		return NewLocalStorage(opts.Root, opts.PublicURL)
	case BackendS3:
		if opts.S3 == nil {
			return nil, fmt.Errorf("s3 backend requires s3 configuration")
		}
		if opts.S3.Type == "" {
			opts.S3.Type = detectStorageType(opts.S3.Endpoint)
		}
		return NewS3Storage(opts.S3)
	case BackendHTTP:
		if opts.HTTP == nil {
			return nil, fmt.Errorf("http backend requires http_source configuration")
		}
		return NewHTTPStorage(opts.HTTP)
	case BackendSQL:
		if opts.Documents == nil {
			return nil, fmt.Errorf("sql backend requires a document repository")
		}
		return NewSQLStorage(opts.Documents, opts.PublicURL), nil
	default:
		return nil, fmt.Errorf("unknown data backend %q", opts.Backend)
	}
}

// detectStorageType attempts to detect the storage type from the endpoint
func detectStorageType(endpoint string) StorageType {
	endpoint = strings.ToLower(endpoint)

	switch {
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return StorageTypeR2
	case strings.Contains(endpoint, "amazonaws.com"):
		return StorageTypeS3
	default:
		return StorageTypeS3Compatible
	}
}

const defaultHTTPTimeout = 10 * time.Second

// NewFromConfig builds the backend selected by cfg.Data.Backend.
// The sql backend opens the configured database first.
func NewFromConfig(cfg *config.Config) (ObjectStorage, error) {
	opts := Options{
		Backend:   Backend(cfg.Data.Backend),
		Root:      cfg.Data.Path,
		PublicURL: cfg.Data.PublicURL,
		S3: &S3Config{
			Type:      StorageType(cfg.S3.Type),
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Prefix:    cfg.S3.Prefix,
			PublicURL: cfg.S3.PublicURL,
		},
		HTTP: &HTTPConfig{
			BaseURL:  cfg.HTTPSource.BaseURL,
			Manifest: cfg.HTTPSource.Manifest,
			Timeout:  cfg.HTTPSource.Timeout,
			Retries:  cfg.HTTPSource.Retries,
		},
	}
	if opts.Backend == BackendSQL {
		db, err := repository.InitDB(&cfg.Database)
		if err != nil {
			return nil, err
		}
		opts.Documents = repository.NewDocumentRepository(db)
	}
	return NewStorage(opts)
}
