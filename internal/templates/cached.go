package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/merlin-energy/truequote/internal/engine/cache"
	"github.com/merlin-energy/truequote/internal/logging"
)

// CachedSource serves a snapshot of another source from a FileStore and
// refreshes it when the entry is missing or expired.
type CachedSource struct {
	Source Source
	Store  *cache.FileStore
}

// Name implements Source.
func (s CachedSource) Name() string {
	return "cached(" + s.Source.Name() + ")"
}

// Key is the cache key under which the snapshot is stored.
func (s CachedSource) Key() string {
	return cache.KeyFor("templates", s.Source.Name())
}

// Load implements Source.
func (s CachedSource) Load(ctx context.Context) ([]IndustryTemplate, error) {
	log := logging.FromContext(ctx)
	key := s.Key()

	entry, err := s.Store.Get(key)
	switch {
	case err == nil:
		var list []IndustryTemplate
		if decodeErr := json.Unmarshal(entry.Data, &list); decodeErr == nil {
			log.Debug().
				Ctx(ctx).
				Str("component", "templates").
				Str("operation", "cache_hit").
				Str("source", s.Source.Name()).
				Dur("age", entry.Age(s.Store.Now())).
				Msg("using cached templates")
			return list, nil
		}
	case errors.Is(err, cache.ErrCacheNotFound),
		errors.Is(err, cache.ErrCacheExpired),
		errors.Is(err, cache.ErrCacheDisabled):
	default:
		log.Warn().Ctx(ctx).Str("component", "templates").Err(err).Msg("template cache unreadable, refreshing")
	}

	list, err := s.Source.Load(ctx)
	if err != nil {
		return nil, err
	}

	if s.Store.IsEnabled() {
		data, marshalErr := json.Marshal(list)
		if marshalErr != nil {
			return nil, fmt.Errorf("encoding template snapshot: %w", marshalErr)
		}
		if setErr := s.Store.Set(key, s.Source.Name(), data); setErr != nil {
			log.Warn().Ctx(ctx).Str("component", "templates").Err(setErr).Msg("could not cache templates")
		}
	}

	return list, nil
}
