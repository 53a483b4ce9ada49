package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/promptgallery/internal/domain"
)

// HTTPConfig configures the read-only HTTP backend.
type HTTPConfig struct {
	BaseURL  string
	Manifest string // manifest path relative to BaseURL; defaults to manifest.json
	Timeout  time.Duration
	Retries  int
}

// Manifest lists the data files published under an HTTP base URL.
type Manifest struct {
	Files []string `json:"files"`
}

// HTTPStorage reads data files from a static site or CDN.
// The key list comes from a manifest document since plain HTTP has no listing.
type HTTPStorage struct {
	client   *resty.Client
	baseURL  string
	manifest string
}

// NewHTTPStorage creates an HTTPStorage for cfg.BaseURL.
func NewHTTPStorage(cfg *HTTPConfig) (*HTTPStorage, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("http source base_url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	manifest := cfg.Manifest
	if manifest == "" {
		manifest = "manifest.json"
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &HTTPStorage{client: client, baseURL: baseURL, manifest: manifest}, nil
}

// List fetches the manifest and returns its keys starting with prefix.
func (s *HTTPStorage) List(ctx context.Context, prefix string) ([]string, error) {
	resp, err := s.client.R().SetContext(ctx).Get("/" + strings.TrimLeft(s.manifest, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch manifest: status %d", resp.StatusCode())
	}

	var m Manifest
	if err := json.Unmarshal(resp.Body(), &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	keys := make([]string, 0, len(m.Files))
	for _, key := range m.Files {
		key = strings.TrimLeft(key, "/")
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Download fetches the object for key.
func (s *HTTPStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get("/" + strings.TrimLeft(key, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to download object: %w", err)
	}
	body := resp.RawBody()
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		body.Close()
		return nil, fmt.Errorf("object %q: %w", key, domain.ErrNotFound)
	case resp.StatusCode() >= http.StatusBadRequest:
		body.Close()
		return nil, fmt.Errorf("failed to download object: status %d", resp.StatusCode())
	}
	return body, nil
}

// Upload always fails: the HTTP backend is read-only.
func (s *HTTPStorage) Upload(context.Context, string, io.Reader, int64, string) error {
	return domain.ErrReadOnly
}

// GetURL returns the absolute URL of key.
func (s *HTTPStorage) GetURL(key string) string {
	return joinURL(s.baseURL, key)
}
