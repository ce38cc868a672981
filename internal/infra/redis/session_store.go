package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"quiz-score-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps started quiz sessions in Redis so any instance can
// accept the submission. Keys expire after ttl.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Save(ctx context.Context, session domain.QuizSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.ID), data, s.ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, id string) (domain.QuizSession, bool, error) {
	return s.decode(s.client.Get(ctx, s.key(id)).Bytes())
}

// Take reads and deletes the session in one round trip (GETDEL).
func (s *SessionStore) Take(ctx context.Context, id string) (domain.QuizSession, bool, error) {
	return s.decode(s.client.GetDel(ctx, s.key(id)).Bytes())
}

func (s *SessionStore) decode(data []byte, err error) (domain.QuizSession, bool, error) {
	if errors.Is(err, redis.Nil) {
		return domain.QuizSession{}, false, nil
	}
	if err != nil {
		return domain.QuizSession{}, false, err
	}
	var session domain.QuizSession
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.QuizSession{}, false, err
	}
	return session, true, nil
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}
