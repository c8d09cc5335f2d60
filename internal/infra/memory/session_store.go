package memory

import (
	"context"
	"encoding/json"
	"sync"

	"pubgame-service/internal/domain"
)

// SessionStore is an in-memory implementation of game.SessionStore. Sessions
// are kept as marshaled documents so reads hand out copies, matching the
// fetch-whole/write-whole contract of the external store.
type SessionStore struct {
	mu     sync.RWMutex
	byID   map[string][]byte
	byCode map[string]string
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		byID:   make(map[string][]byte),
		byCode: make(map[string]string),
	}
}

func (s *SessionStore) GetByID(_ context.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.byID[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (s *SessionStore) GetByCode(ctx context.Context, code string) (domain.Session, error) {
	s.mu.RLock()
	id, ok := s.byCode[code]
	s.mu.RUnlock()
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *SessionStore) Save(_ context.Context, session domain.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[session.ID] = raw
	s.byCode[session.Code] = session.ID
	return nil
}
