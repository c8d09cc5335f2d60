package game

import (
	"context"

	"pubgame-service/internal/domain"
)

// PackRepository loads content packs (from cache or the backing store).
type PackRepository interface {
	GetPack(ctx context.Context, id string) (domain.Pack, error)
}
