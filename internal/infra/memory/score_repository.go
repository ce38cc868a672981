package memory

import (
	"context"
	"sync"

	"quiz-score-service/internal/domain"
)

// ScoreRepository is an append-only in-memory score log.
type ScoreRepository struct {
	mu     sync.RWMutex
	scores []domain.Score
}

func NewScoreRepository() *ScoreRepository {
	return &ScoreRepository{}
}

func (r *ScoreRepository) SaveScore(_ context.Context, s domain.Score) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.Answers = append([]domain.AnswerOutcome(nil), s.Answers...)
	r.scores = append(r.scores, s)
	return nil
}

func (r *ScoreRepository) ListByUser(_ context.Context, userID string, limit int) ([]domain.Score, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Score, 0)
	for i := len(r.scores) - 1; i >= 0; i-- {
		if r.scores[i].UserID != userID {
			continue
		}
		out = append(out, r.scores[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Count returns the number of stored scores.
func (r *ScoreRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.scores)
}
