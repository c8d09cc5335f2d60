package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"pubgame-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// PackLoader fetches content packs from a backing store (e.g., Postgres).
type PackLoader interface {
	LoadPack(ctx context.Context, id string) (domain.Pack, error)
}

// PackRepository caches pack documents in Redis (SET pack:{id} JSON) and
// falls back to a loader on cache miss, collapsing concurrent misses with
// singleflight.
type PackRepository struct {
	client *redis.Client
	loader PackLoader
	ttl    time.Duration
	sf     singleflight.Group
}

func NewPackRepository(client *redis.Client, loader PackLoader, ttl time.Duration) *PackRepository {
	return &PackRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
	}
}

func (r *PackRepository) GetPack(ctx context.Context, id string) (domain.Pack, error) {
	if pack, ok := r.fromCache(ctx, id); ok {
		return pack, nil
	}

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if pack, ok := r.fromCache(ctx, id); ok {
			return pack, nil
		}

		pack, err := r.loader.LoadPack(ctx, id)
		if err != nil {
			return domain.Pack{}, err
		}

		raw, err := json.Marshal(pack)
		if err != nil {
			return domain.Pack{}, fmt.Errorf("marshal pack %s: %w", id, err)
		}
		_ = r.client.Set(ctx, r.key(id), raw, r.ttlWithJitter()).Err()
		return pack, nil
	})
	if err != nil {
		return domain.Pack{}, err
	}
	return result.(domain.Pack), nil
}

func (r *PackRepository) fromCache(ctx context.Context, id string) (domain.Pack, bool) {
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) || err != nil {
		return domain.Pack{}, false
	}
	var pack domain.Pack
	if err := json.Unmarshal(raw, &pack); err != nil {
		return domain.Pack{}, false
	}
	return pack, true
}

func (r *PackRepository) key(id string) string {
	return "pack:" + id
}

func (r *PackRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// Up to 10% jitter to spread expirations. The package-level source is
	// used because flights for different keys jitter concurrently.
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
