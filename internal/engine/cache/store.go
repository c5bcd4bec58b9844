package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

const snapshotExt = ".json"

// Store errors.
var (
	ErrCacheNotFound   = errors.New("cache entry not found")
	ErrCacheExpired    = errors.New("cache entry expired")
	ErrInvalidCacheKey = errors.New("cache key cannot be empty")
	ErrCacheDisabled   = errors.New("cache is disabled")
)

// KeyFor derives a filesystem-safe key from its parts.
func KeyFor(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:16])
}

// FileStore keeps one JSON snapshot file per key. Safe for concurrent use.
type FileStore struct {
	directory string
	enabled   bool
	ttl       time.Duration
	now       func() time.Time

	mu sync.RWMutex
}

// NewFileStore creates a store rooted at directory, creating it if needed.
// A disabled store accepts every call and returns ErrCacheDisabled.
// A non-positive ttlSeconds means DefaultTTLSeconds.
func NewFileStore(directory string, enabled bool, ttlSeconds int) (*FileStore, error) {
	if !enabled {
		return &FileStore{now: time.Now}, nil
	}
	if directory == "" {
		return nil, errors.New("cache directory cannot be empty")
	}
	if ttlSeconds <= 0 {
		ttlSeconds = DefaultTTLSeconds
	}
	if err := os.MkdirAll(directory, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &FileStore{
		directory: directory,
		enabled:   true,
		ttl:       time.Duration(ttlSeconds) * time.Second,
		now:       time.Now,
	}, nil
}

// SetClock replaces the store's time source.
func (s *FileStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Now returns the store's current time.
func (s *FileStore) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now()
}

// Get returns the snapshot for key, ErrCacheNotFound, or ErrCacheExpired.
// Expired and unreadable snapshots are removed.
func (s *FileStore) Get(key string) (*Snapshot, error) {
	if !s.enabled {
		return nil, ErrCacheDisabled
	}
	if key == "" {
		return nil, ErrInvalidCacheKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	snap, err := readSnapshot(path)
	if err != nil {
		if !errors.Is(err, ErrCacheNotFound) {
			_ = os.Remove(path)
		}
		return nil, err
	}
	if snap.Expired(s.now()) {
		_ = os.Remove(path)
		return nil, ErrCacheExpired
	}
	return snap, nil
}

// Set stores data fetched from source under key, replacing any previous
// snapshot. The file is written to a temporary name and renamed into place.
func (s *FileStore) Set(key, source string, data json.RawMessage) error {
	if !s.enabled {
		return ErrCacheDisabled
	}
	if key == "" {
		return ErrInvalidCacheKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(newSnapshot(key, source, data, s.now(), s.ttl), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot %s: %w", key, err)
	}

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing snapshot %s: %w", key, err)
	}
	return nil
}

// List returns every snapshot on disk, expired ones included, ordered by
// source. Unreadable files are skipped.
func (s *FileStore) List() ([]Snapshot, error) {
	if !s.enabled {
		return nil, ErrCacheDisabled
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	names, err := s.files()
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(names))
	for _, name := range names {
		snap, err := readSnapshot(filepath.Join(s.directory, name))
		if err != nil {
			continue
		}
		snap.Data = nil
		out = append(out, *snap)
	}
	slices.SortFunc(out, func(a, b Snapshot) int {
		return strings.Compare(a.Source+a.Key, b.Source+b.Key)
	})
	return out, nil
}

// Clear removes every snapshot and returns how many were removed.
func (s *FileStore) Clear() (int, error) {
	if !s.enabled {
		return 0, ErrCacheDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.files()
	if err != nil {
		return 0, err
	}
	for i, name := range names {
		if err := os.Remove(filepath.Join(s.directory, name)); err != nil {
			return i, fmt.Errorf("removing %s: %w", name, err)
		}
	}
	return len(names), nil
}

// Count returns the number of snapshots on disk, expired ones included.
func (s *FileStore) Count() (int, error) {
	if !s.enabled {
		return 0, ErrCacheDisabled
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	names, err := s.files()
	return len(names), err
}

// IsEnabled reports whether the store persists anything.
func (s *FileStore) IsEnabled() bool { return s.enabled }

// Directory returns the cache directory.
func (s *FileStore) Directory() string { return s.directory }

// TTL returns the lifetime given to new snapshots.
func (s *FileStore) TTL() time.Duration { return s.ttl }

func (s *FileStore) files() ([]string, error) {
	entries, err := os.ReadDir(s.directory)
	if err != nil {
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == snapshotExt {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (s *FileStore) path(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(key)
	return filepath.Join(s.directory, safe+snapshotExt)
}

func readSnapshot(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCacheNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", filepath.Base(path), err)
	}
	return &snap, nil
}
