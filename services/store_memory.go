package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"venuepulse/models"
)

// MemorySessionStore is an in-memory SessionStore with the same TTL
// semantics as the Redis store. Used by handler tests and single-node dev.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	ttl      time.Duration
	now      func() time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*models.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// SetClock overrides the time source for expiry tests.
func (s *MemorySessionStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *MemorySessionStore) Create(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error) {
	now := s.now()
	session := &models.Session{
		ID:           uuid.NewString(),
		OperatorID:   req.OperatorID,
		OperatorName: req.OperatorName,
		StandID:      req.StandID,
		StandName:    req.StandName,
		Section:      req.Section,
		CurrentTab:   req.CurrentTab,
		Status:       req.Status,
		Sandbox:      req.Sandbox,
		StartedAt:    now,
		LastSeen:     now,
	}
	if session.Status == "" {
		session.Status = models.StatusOnline
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	copy := *session
	return &copy, nil
}

func (s *MemorySessionStore) Heartbeat(ctx context.Context, id string, update models.HeartbeatUpdate) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || s.expired(session) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}

	applyUpdate(session, update)
	session.LastSeen = s.now()

	copy := *session
	return &copy, nil
}

func (s *MemorySessionStore) End(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok || s.expired(session) {
		return nil, ErrSessionNotFound
	}
	copy := *session
	return &copy, nil
}

func (s *MemorySessionStore) ListActive(ctx context.Context) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]models.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		if s.expired(session) {
			continue
		}
		sessions = append(sessions, *session)
	}
	return sessions, nil
}

func (s *MemorySessionStore) PruneExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for id, session := range s.sessions {
		if s.expired(session) {
			delete(s.sessions, id)
			pruned++
		}
	}
	return pruned, nil
}

func (s *MemorySessionStore) expired(session *models.Session) bool {
	return s.now().Sub(session.LastSeen) > s.ttl
}
