package core

import (
	"context"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// MemorySessionStore keeps sessions in process. At most one session is
// active at a time; saving a new one revokes the previous.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	activeID string
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: map[string]Session{}}
}

func (s *MemorySessionStore) Save(_ context.Context, session Session) (Session, error) {
	if s == nil {
		return Session{}, newAPIError("session store is nil", goerrors.CategoryInternal, ErrorInternal)
	}
	if strings.TrimSpace(session.Token.AccessToken) == "" {
		return Session{}, newAPIError("session token is required", goerrors.CategoryBadInput, ErrorBadInput)
	}
	now := time.Now().UTC()
	if strings.TrimSpace(session.ID) == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	if session.Status == "" {
		session.Status = SessionStatusActive
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if session.Status == SessionStatusActive && s.activeID != "" && s.activeID != session.ID {
		if previous, ok := s.sessions[s.activeID]; ok {
			revokedAt := now
			previous.Status = SessionStatusRevoked
			previous.RevokedAt = &revokedAt
			previous.UpdatedAt = now
			s.sessions[previous.ID] = previous
		}
	}
	s.sessions[session.ID] = session
	if session.Status == SessionStatusActive {
		s.activeID = session.ID
	}
	return session, nil
}

func (s *MemorySessionStore) GetActive(context.Context) (Session, error) {
	if s == nil {
		return Session{}, ErrSessionNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[s.activeID]
	if !ok || session.Status != SessionStatusActive {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *MemorySessionStore) Revoke(_ context.Context, id string, revokedAt time.Time) error {
	if s == nil {
		return ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	revokedAt = revokedAt.UTC()
	session.Status = SessionStatusRevoked
	session.RevokedAt = &revokedAt
	session.UpdatedAt = revokedAt
	s.sessions[id] = session
	if s.activeID == id {
		s.activeID = ""
	}
	return nil
}
