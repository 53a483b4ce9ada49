package domain

import "errors"

var (
	// ErrSourceUnavailable is returned when the data backend cannot be reached at all.
	ErrSourceUnavailable = errors.New("data source unavailable")

	// ErrNotFound is returned by API-level lookups when an identifier resolves to nothing.
	ErrNotFound = errors.New("prompt not found")

	// ErrReadOnly is returned by backends that cannot accept uploads.
	ErrReadOnly = errors.New("storage backend is read-only")

	// ErrCacheMiss is returned by snapshot caches when no entry exists for a locale.
	ErrCacheMiss = errors.New("snapshot cache miss")
)
