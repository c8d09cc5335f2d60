package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"pubgame-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// PackLoader fetches content packs from a backing store (e.g., Postgres).
type PackLoader interface {
	LoadPack(ctx context.Context, id string) (domain.Pack, error)
}

// PackRepository caches packs with TTL to avoid repeated store hits during a
// live show, deduplicating concurrent misses with singleflight.
type PackRepository struct {
	loader PackLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedPack
}

type cachedPack struct {
	pack      domain.Pack
	expiresAt time.Time
}

func NewPackRepository(loader PackLoader, ttl time.Duration) *PackRepository {
	return &PackRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		cache:  make(map[string]cachedPack),
	}
}

func (r *PackRepository) GetPack(ctx context.Context, id string) (domain.Pack, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[id]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.pack, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[id]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.pack, nil
		}
		r.mu.RUnlock()

		pack, err := r.loader.LoadPack(ctx, id)
		if err != nil {
			return domain.Pack{}, err
		}

		r.mu.Lock()
		r.cache[id] = cachedPack{pack: pack, expiresAt: now.Add(r.ttlWithJitter())}
		r.mu.Unlock()
		return pack, nil
	})
	if err != nil {
		return domain.Pack{}, err
	}
	return result.(domain.Pack), nil
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

// StaticPackLoader serves packs from an in-memory map (tests/demos).
type StaticPackLoader struct {
	packs map[string]domain.Pack
}

func NewStaticPackLoader(packs map[string]domain.Pack) *StaticPackLoader {
	return &StaticPackLoader{packs: packs}
}

func (l *StaticPackLoader) LoadPack(_ context.Context, id string) (domain.Pack, error) {
	if pack, ok := l.packs[id]; ok {
		return pack, nil
	}
	return domain.Pack{}, domain.ErrPackNotFound
}
