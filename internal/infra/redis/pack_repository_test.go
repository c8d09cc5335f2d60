package redis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"pubgame-service/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingLoader struct {
	calls int32
	packs map[string]domain.Pack
}

func (l *countingLoader) LoadPack(_ context.Context, id string) (domain.Pack, error) {
	atomic.AddInt32(&l.calls, 1)
	if pack, ok := l.packs[id]; ok {
		return pack, nil
	}
	return domain.Pack{}, domain.ErrPackNotFound
}

func newTestRepo(t *testing.T, loader PackLoader) (*PackRepository, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewPackRepository(client, loader, time.Minute), mr
}

func TestPackRepositoryCachesInRedis(t *testing.T) {
	loader := &countingLoader{packs: map[string]domain.Pack{
		"p1": {ID: "p1", Name: "Summer Peril", Format: domain.FormatPeril},
	}}
	repo, mr := newTestRepo(t, loader)
	ctx := context.Background()

	pack, err := repo.GetPack(ctx, "p1")
	if err != nil {
		t.Fatalf("get pack: %v", err)
	}
	if pack.Name != "Summer Peril" {
		t.Fatalf("unexpected pack: %+v", pack)
	}
	if !mr.Exists("pack:p1") {
		t.Fatalf("expected cached key pack:p1")
	}

	if _, err := repo.GetPack(ctx, "p1"); err != nil {
		t.Fatalf("cached get: %v", err)
	}
	if calls := atomic.LoadInt32(&loader.calls); calls != 1 {
		t.Fatalf("expected one loader call, got %d", calls)
	}
}

func TestPackRepositoryReloadsAfterExpiry(t *testing.T) {
	loader := &countingLoader{packs: map[string]domain.Pack{
		"p1": {ID: "p1", Format: domain.FormatPeril},
	}}
	repo, mr := newTestRepo(t, loader)
	ctx := context.Background()

	if _, err := repo.GetPack(ctx, "p1"); err != nil {
		t.Fatalf("first get: %v", err)
	}
	// Jitter only extends the TTL, never past twice the base.
	mr.FastForward(2 * time.Minute)
	if _, err := repo.GetPack(ctx, "p1"); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if calls := atomic.LoadInt32(&loader.calls); calls != 2 {
		t.Fatalf("expected reload after expiry, got %d calls", calls)
	}
}

func TestPackRepositoryLoaderErrorNotCached(t *testing.T) {
	loader := &countingLoader{packs: map[string]domain.Pack{}}
	repo, mr := newTestRepo(t, loader)
	ctx := context.Background()

	if _, err := repo.GetPack(ctx, "missing"); !errors.Is(err, domain.ErrPackNotFound) {
		t.Fatalf("expected ErrPackNotFound, got %v", err)
	}
	if mr.Exists("pack:missing") {
		t.Fatalf("error result must not be cached")
	}
}
