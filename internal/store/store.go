// Package store implements a file-backed keyed record repository.
//
// Records live in an in-memory slice mirrored to a single JSON array file on
// every mutation. Lookups are linear scans; the store is a stand-in for a
// real database and makes no durability promises beyond best effort.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dinneconnect/auth-service/internal/errs"
)

// Record is the unit of persistence. Implementations expose a stable primary
// key and project named attributes as strings for scan-based lookups.
type Record interface {
	Key() string
	Field(name string) (string, bool)
}

// Store holds records of one type in memory and mirrors them to a backing
// file. A single RWMutex serializes mutations (read-modify-write of both the
// slice and the file); readers observe consistent snapshots.
type Store[T Record] struct {
	path string
	log  *zap.Logger

	mu   sync.RWMutex
	recs []T
}

// Open ensures the backing file and its parent directory exist and loads the
// current collection. A missing or empty file initializes to an empty
// collection. Unparseable content is logged and reset to empty: data loss on
// corruption is accepted, not fatal.
func Open[T Record](path string, log *zap.Logger) (*Store[T], error) {
	s := &Store[T]{path: path, log: log}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create dir %s: %v", errs.ErrPersistence, dir, err)
		}
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if werr := os.WriteFile(path, []byte("[]"), 0o600); werr != nil {
			return nil, fmt.Errorf("%w: init %s: %v", errs.ErrPersistence, path, werr)
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("%w: read %s: %v", errs.ErrPersistence, path, err)
	}

	if len(strings.TrimSpace(string(raw))) == 0 {
		if werr := os.WriteFile(path, []byte("[]"), 0o600); werr != nil {
			return nil, fmt.Errorf("%w: init %s: %v", errs.ErrPersistence, path, werr)
		}
		return s, nil
	}

	var recs []T
	if err := json.Unmarshal(raw, &recs); err != nil {
		log.Error("store: unparseable backing file, resetting to empty",
			zap.String("path", path), zap.Error(err))
		if werr := os.WriteFile(path, []byte("[]"), 0o600); werr != nil {
			return nil, fmt.Errorf("%w: reset %s: %v", errs.ErrPersistence, path, werr)
		}
		return s, nil
	}
	s.recs = recs
	return s, nil
}

// Path returns the backing file path.
func (s *Store[T]) Path() string { return s.path }

// persist writes the candidate collection to the backing file. Callers hold
// the write lock and commit the in-memory slice only after persist succeeds,
// so memory never runs ahead of disk.
func (s *Store[T]) persist(candidate []T) error {
	data, err := json.MarshalIndent(candidate, "", "  ")
	if err != nil {
		s.log.Error("store: marshal failed", zap.String("path", s.path), zap.Error(err))
		return fmt.Errorf("%w: marshal: %v", errs.ErrPersistence, err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.log.Error("store: write failed", zap.String("path", s.path), zap.Error(err))
		return fmt.Errorf("%w: write %s: %v", errs.ErrPersistence, s.path, err)
	}
	return nil
}

// Insert appends a record. The key must not collide with a live record.
func (s *Store[T]) Insert(rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.recs {
		if r.Key() == rec.Key() {
			return fmt.Errorf("%w: key %s", errs.ErrAlreadyExists, rec.Key())
		}
	}
	candidate := make([]T, 0, len(s.recs)+1)
	candidate = append(candidate, s.recs...)
	candidate = append(candidate, rec)
	if err := s.persist(candidate); err != nil {
		return err
	}
	s.recs = candidate
	return nil
}

// All returns a defensive copy of every record in insertion order.
func (s *Store[T]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.recs))
	copy(out, s.recs)
	return out
}

// ByKey returns the record with the given key, or errs.ErrNotFound.
func (s *Store[T]) ByKey(key string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.recs {
		if r.Key() == key {
			return r, nil
		}
	}
	var zero T
	return zero, errs.ErrNotFound
}

// ByField returns the first record whose named field matches value
// case-insensitively, or errs.ErrNotFound.
func (s *Store[T]) ByField(field, value string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.recs {
		if v, ok := r.Field(field); ok && strings.EqualFold(v, value) {
			return r, nil
		}
	}
	var zero T
	return zero, errs.ErrNotFound
}

// AllByField returns every record whose named field matches value
// case-insensitively, in insertion order.
func (s *Store[T]) AllByField(field, value string) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []T
	for _, r := range s.recs {
		if v, ok := r.Field(field); ok && strings.EqualFold(v, value) {
			out = append(out, r)
		}
	}
	return out
}

// Update applies fn to the record with the given key and persists the result.
// The key of the record must not change. Returns errs.ErrNotFound if absent.
func (s *Store[T]) Update(key string, fn func(T) T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	idx := -1
	for i, r := range s.recs {
		if r.Key() == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return zero, errs.ErrNotFound
	}
	updated := fn(s.recs[idx])
	if updated.Key() != key {
		return zero, fmt.Errorf("%w: update changed record key", errs.ErrValidation)
	}
	candidate := make([]T, len(s.recs))
	copy(candidate, s.recs)
	candidate[idx] = updated
	if err := s.persist(candidate); err != nil {
		return zero, err
	}
	s.recs = candidate
	return updated, nil
}

// DeleteByKey removes the record with the given key.
// Returns errs.ErrNotFound if absent; deleting twice is not an error class
// of its own.
func (s *Store[T]) DeleteByKey(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := make([]T, 0, len(s.recs))
	found := false
	for _, r := range s.recs {
		if r.Key() == key {
			found = true
			continue
		}
		candidate = append(candidate, r)
	}
	if !found {
		return errs.ErrNotFound
	}
	if err := s.persist(candidate); err != nil {
		return err
	}
	s.recs = candidate
	return nil
}

// DeleteByField removes every record whose named field matches value
// case-insensitively and reports how many were removed.
// Returns errs.ErrNotFound when nothing matched.
func (s *Store[T]) DeleteByField(field, value string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := make([]T, 0, len(s.recs))
	removed := 0
	for _, r := range s.recs {
		if v, ok := r.Field(field); ok && strings.EqualFold(v, value) {
			removed++
			continue
		}
		candidate = append(candidate, r)
	}
	if removed == 0 {
		return 0, errs.ErrNotFound
	}
	if err := s.persist(candidate); err != nil {
		return 0, err
	}
	s.recs = candidate
	return removed, nil
}
