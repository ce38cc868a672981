package memory

import (
	"context"
	"sync"
	"time"

	"quiz-score-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Sessions older than ttl are treated as absent.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.Mutex
	sessions map[string]domain.QuizSession
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]domain.QuizSession),
	}
}

func (s *SessionStore) Save(_ context.Context, session domain.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	session.QuestionIDs = append([]string(nil), session.QuestionIDs...)
	s.sessions[session.ID] = session
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (domain.QuizSession, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok || s.expired(session) {
		return domain.QuizSession{}, false, nil
	}
	return session, true, nil
}

func (s *SessionStore) Take(_ context.Context, id string) (domain.QuizSession, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.QuizSession{}, false, nil
	}
	delete(s.sessions, id)
	if s.expired(session) {
		return domain.QuizSession{}, false, nil
	}
	return session, true, nil
}

// Len reports how many sessions are held, expired ones included.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) pruneLocked() {
	for id, session := range s.sessions {
		if s.expired(session) {
			delete(s.sessions, id)
		}
	}
}

func (s *SessionStore) expired(session domain.QuizSession) bool {
	return s.ttl > 0 && s.clock().Sub(session.StartedAt) > s.ttl
}
