// Package listcache persists the last good copy of each fetched source in a
// bbolt database. When a fetch fails in skip mode the pipeline falls back to
// the cached body, and the stored checksums feed the generated file headers.
package listcache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"
)

var (
	bucketContent = []byte("content")
	bucketMeta    = []byte("meta")
)

// Entry describes one cached source body.
type Entry struct {
	Checksum    string // hex sha256 of the body
	FetchedUnix int64  // seconds since epoch
}

// Store is a bbolt-backed cache keyed by source name.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the cache database at path and ensures buckets
// exist. Parent directories are created as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketContent); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Put stores a source body, replacing any previous copy, and returns its
// checksum.
func (s *Store) Put(name string, body []byte, fetchedAt time.Time) (string, error) {
	sum := sha256.Sum256(body)
	checksum := hex.EncodeToString(sum[:])

	meta := make([]byte, 8+len(sum))
	binary.BigEndian.PutUint64(meta, uint64(fetchedAt.Unix()))
	copy(meta[8:], sum[:])

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketContent).Put([]byte(name), body); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put([]byte(name), meta)
	})
	if err != nil {
		return "", err
	}
	return checksum, nil
}

// Get returns the cached body and metadata for a source, or ok=false when
// none is stored.
func (s *Store) Get(name string) ([]byte, Entry, bool, error) {
	var (
		body  []byte
		entry Entry
		ok    bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketContent).Get([]byte(name))
		if v == nil {
			return nil
		}
		body = make([]byte, len(v))
		copy(body, v)

		if m := tx.Bucket(bucketMeta).Get([]byte(name)); len(m) == 8+sha256.Size {
			entry.FetchedUnix = int64(binary.BigEndian.Uint64(m))
			entry.Checksum = hex.EncodeToString(m[8:])
		}
		ok = true
		return nil
	})
	if err != nil {
		return nil, Entry{}, false, err
	}
	return body, entry, ok, nil
}

// Nop is a disabled cache; every read misses and writes are dropped.
// Used when no cache path is configured.
type Nop struct{}

func (Nop) Put(_ string, body []byte, _ time.Time) (string, error) {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

func (Nop) Get(string) ([]byte, Entry, bool, error) { return nil, Entry{}, false, nil }

func (Nop) Close() error { return nil }
