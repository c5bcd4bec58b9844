package cache

import (
	"encoding/json"
	"time"
)

// Snapshot is one cached payload fetched from a named source.
type Snapshot struct {
	Key       string          `json:"key"`
	Source    string          `json:"source"`
	StoredAt  time.Time       `json:"storedAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Data      json.RawMessage `json:"data"`
}

// newSnapshot stamps data with now, truncated to whole seconds so the times
// survive an RFC 3339 round trip unchanged.
func newSnapshot(key, source string, data json.RawMessage, now time.Time, ttl time.Duration) *Snapshot {
	stored := now.UTC().Truncate(time.Second)
	return &Snapshot{
		Key:       key,
		Source:    source,
		StoredAt:  stored,
		ExpiresAt: stored.Add(ttl),
		Data:      data,
	}
}

// Expired reports whether the snapshot is stale at now.
func (s *Snapshot) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Age is the time since the snapshot was stored.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.StoredAt)
}

// Remaining is the lifetime left at now, never negative.
func (s *Snapshot) Remaining(now time.Time) time.Duration {
	return max(s.ExpiresAt.Sub(now), 0)
}
