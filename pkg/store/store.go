// Package store is a small pebble-backed key/value store used by the
// application's controllers.
package store

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"webserver/pkg/logger"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store: not open")

// Store wraps a pebble database.
type Store struct {
	db   *pebble.DB
	path string
}

// KV is one listed entry.
type KV struct {
	Key   string
	Value []byte
}

// Open opens (creating if needed) the database at path. fs may be nil for
// the on-disk filesystem; tests pass vfs.NewMem().
func Open(path string, fs vfs.FS) (*Store, error) {
	opts := &pebble.Options{}
	if fs != nil {
		opts.FS = fs
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	logger.Info("store_opened", "path", path)
	return &Store{db: db, path: path}, nil
}

// Path returns the directory the store lives in.
func (s *Store) Path() string { return s.path }

// Ready reports whether the store is open.
func (s *Store) Ready() bool { return s != nil && s.db != nil }

// Close flushes and closes the database.
func (s *Store) Close() error {
	if !s.Ready() {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func IsNotFound(err error) bool {
	return errors.Is(err, pebble.ErrNotFound)
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(key string) ([]byte, error) {
	if !s.Ready() {
		return nil, ErrClosed
	}
	v, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if IsNotFound(err) {
			logger.Debug("get_key_missing", "key", key)
		} else {
			logger.Error("get_key_failed", "key", key, "error", err)
		}
		return nil, err
	}
	defer closer.Close()
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores value under key with a synced write.
func (s *Store) Set(key string, value []byte) error {
	if !s.Ready() {
		return ErrClosed
	}
	if err := s.db.Set([]byte(key), value, pebble.Sync); err != nil {
		logger.Error("save_key_failed", "key", key, "error", err)
		return err
	}
	logger.Debug("save_key_ok", "key", key, "len", len(value))
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	if !s.Ready() {
		return ErrClosed
	}
	if err := s.db.Delete([]byte(key), pebble.Sync); err != nil {
		logger.Error("delete_key_failed", "key", key, "error", err)
		return err
	}
	return nil
}

// List returns up to limit entries whose key starts with prefix, in key
// order. limit <= 0 means no limit.
func (s *Store) List(prefix string, limit int) ([]KV, error) {
	if !s.Ready() {
		return nil, ErrClosed
	}
	opts := &pebble.IterOptions{LowerBound: []byte(prefix)}
	if upper := prefixUpperBound([]byte(prefix)); upper != nil {
		opts.UpperBound = upper
	}
	it, err := s.db.NewIter(opts)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []KV
	for it.First(); it.Valid(); it.Next() {
		out = append(out, KV{
			Key:   string(it.Key()),
			Value: append([]byte(nil), it.Value()...),
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, it.Error()
}

// prefixUpperBound returns the smallest key greater than every key with
// the prefix, or nil when there is none.
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
