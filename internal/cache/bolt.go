package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/timmy/promptgallery/internal/domain"
	bolt "go.etcd.io/bbolt"
	bolterrors "go.etcd.io/bbolt/errors"
)

var snapshotBucket = []byte("snapshots")

// Bolt persists snapshots in a local bbolt file so a restarted single node
// can serve before its first reload.
type Bolt struct {
	db  *bolt.DB
	ttl time.Duration
}

// NewBolt opens (or creates) the bbolt file at path.
func NewBolt(path string, ttl time.Duration) (*Bolt, error) {
	if path == "" {
		return nil, fmt.Errorf("bolt cache path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt cache: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &Bolt{db: db, ttl: ttl}, nil
}

func (b *Bolt) Get(_ context.Context, locale string) (*domain.Snapshot, error) {
	var raw []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(snapshotBucket).Get([]byte(locale)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if raw == nil {
		return nil, domain.ErrCacheMiss
	}
	return decode(raw, time.Now())
}

func (b *Bolt) Set(_ context.Context, snap *domain.Snapshot) error {
	raw, err := encode(snap, b.ttl)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).Put([]byte(snap.Locale), raw)
	})
}

func (b *Bolt) Invalidate(context.Context) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(snapshotBucket); err != nil && !errors.Is(err, bolterrors.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(snapshotBucket)
		return err
	})
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
