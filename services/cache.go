package services

import (
	"context"
	"time"

	"github.com/lac-hong-legacy/ido_api/shared"
	"github.com/rs/zerolog/log"
)

// CounterStore is the subset of the key-value store the core logic depends on.
type CounterStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// readCache decodes a cached entry into dest. A miss, a store error or a corrupt
// entry all report false so the caller falls through to the database.
func readCache(ctx context.Context, store CounterStore, key string, dest interface{}) bool {
	raw, err := store.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		return false
	}
	if raw == "" {
		return false
	}
	if err := shared.JSONAPI.UnmarshalFromString(raw, dest); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Discarding corrupt cache entry")
		return false
	}
	return true
}

func writeCache(ctx context.Context, store CounterStore, key string, value interface{}, ttl time.Duration) {
	if err := store.Set(ctx, key, value, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

func invalidateCache(ctx context.Context, store CounterStore, keys ...string) {
	if err := store.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("Cache invalidation failed")
	}
}
