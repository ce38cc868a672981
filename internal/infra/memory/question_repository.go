package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-score-service/internal/domain"
)

// QuestionRepository is an in-memory question bank (useful for tests/demos).
type QuestionRepository struct {
	mu        sync.RWMutex
	questions map[string]domain.Question
}

func NewQuestionRepository(seed ...domain.Question) *QuestionRepository {
	r := &QuestionRepository{questions: make(map[string]domain.Question, len(seed))}
	for _, q := range seed {
		r.questions[q.ID] = cloneQuestion(q)
	}
	return r
}

func (r *QuestionRepository) GetQuestion(_ context.Context, id string) (domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return cloneQuestion(q), nil
}

func (r *QuestionRepository) ListByCategory(_ context.Context, category string) ([]domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Question, 0)
	for _, q := range r.questions {
		if q.Active && q.Category == category {
			out = append(out, cloneQuestion(q))
		}
	}
	sortQuestions(out)
	return out, nil
}

func (r *QuestionRepository) Categories(_ context.Context) ([]domain.CategorySummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int)
	for _, q := range r.questions {
		if q.Active {
			counts[q.Category]++
		}
	}
	out := make([]domain.CategorySummary, 0, len(counts))
	for name, n := range counts {
		out = append(out, domain.CategorySummary{Name: name, QuestionCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *QuestionRepository) CreateQuestion(_ context.Context, q domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions[q.ID] = cloneQuestion(q)
	return nil
}

func (r *QuestionRepository) UpdateQuestion(_ context.Context, q domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.questions[q.ID]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	q.TimesAnswered = existing.TimesAnswered
	q.TimesCorrect = existing.TimesCorrect
	q.CreatedAt = existing.CreatedAt
	r.questions[q.ID] = cloneQuestion(q)
	return nil
}

func (r *QuestionRepository) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[id]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	q.Active = active
	r.questions[id] = q
	return nil
}

func (r *QuestionRepository) IncrementStats(_ context.Context, deltas []domain.QuestionStatsDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range deltas {
		q, ok := r.questions[d.QuestionID]
		if !ok {
			continue
		}
		q.TimesAnswered += d.Answered
		q.TimesCorrect += d.Correct
		r.questions[d.QuestionID] = q
	}
	return nil
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Options = append([]string(nil), q.Options...)
	return q
}

func sortQuestions(qs []domain.Question) {
	sort.Slice(qs, func(i, j int) bool {
		if !qs[i].CreatedAt.Equal(qs[j].CreatedAt) {
			return qs[i].CreatedAt.Before(qs[j].CreatedAt)
		}
		return qs[i].ID < qs[j].ID
	})
}
