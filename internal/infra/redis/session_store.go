package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pubgame-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// SessionStore persists session documents in Redis: the full document as
// JSON under game:{id}, plus a code index game:code:{CODE} -> id so players
// can join by the short code. Documents are read and written whole; there is
// no field-level update, matching the store contract.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (domain.Session, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session %s: %w", id, err)
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return session, nil
}

func (s *SessionStore) GetByCode(ctx context.Context, code string) (domain.Session, error) {
	id, err := s.client.Get(ctx, s.codeKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("resolve code %s: %w", code, err)
	}
	return s.GetByID(ctx, id)
}

func (s *SessionStore) Save(ctx context.Context, session domain.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", session.ID, err)
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(session.ID), raw, s.ttl)
	pipe.Set(ctx, s.codeKey(session.Code), session.ID, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session %s: %w", session.ID, err)
	}
	return nil
}

func (s *SessionStore) key(id string) string {
	return "game:" + id
}

func (s *SessionStore) codeKey(code string) string {
	return "game:code:" + code
}
