package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"pubgame-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// PackLoader loads content-pack JSONB from Postgres.
type PackLoader struct {
	pool *pgxpool.Pool
}

func NewPackLoader(pool *pgxpool.Pool) *PackLoader {
	return &PackLoader{pool: pool}
}

func (l *PackLoader) LoadPack(ctx context.Context, id string) (domain.Pack, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM packs WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Pack{}, domain.ErrPackNotFound
	}
	if err != nil {
		return domain.Pack{}, fmt.Errorf("load pack: %w", err)
	}
	var pack domain.Pack
	if err := json.Unmarshal(raw, &pack); err != nil {
		return domain.Pack{}, fmt.Errorf("unmarshal pack: %w", err)
	}
	return pack, nil
}
