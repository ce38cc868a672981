package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quiz-score-service/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuestionInput is the admin-editable content of a question.
type QuestionInput struct {
	Text         string
	Options      []string
	CorrectIndex int
	Category     string
	Difficulty   string
	Points       int
	Explanation  string
}

// AdminService manages the question bank.
type AdminService struct {
	questions QuestionRepository
	catalog   QuestionCatalog
	log       *zap.Logger
	now       func() time.Time
}

func NewAdminService(questions QuestionRepository, catalog QuestionCatalog, log *zap.Logger) *AdminService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminService{questions: questions, catalog: catalog, log: log, now: time.Now}
}

// CreateQuestion stores a new active question. Points default from difficulty.
func (s *AdminService) CreateQuestion(ctx context.Context, in QuestionInput) (domain.Question, error) {
	q := applyInput(domain.Question{
		ID:        uuid.NewString(),
		Active:    true,
		CreatedAt: s.now().UTC(),
	}, in)
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	if err := s.questions.CreateQuestion(ctx, q); err != nil {
		return domain.Question{}, fmt.Errorf("create question: %w", err)
	}
	s.invalidate(ctx, q.Category)
	return q, nil
}

// UpdateQuestion replaces the content of a question, keeping its counters.
func (s *AdminService) UpdateQuestion(ctx context.Context, id string, in QuestionInput) (domain.Question, error) {
	existing, err := s.questions.GetQuestion(ctx, id)
	if err != nil {
		return domain.Question{}, err
	}
	q := applyInput(existing, in)
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	if err := s.questions.UpdateQuestion(ctx, q); err != nil {
		return domain.Question{}, fmt.Errorf("update question: %w", err)
	}
	s.invalidate(ctx, existing.Category)
	if q.Category != existing.Category {
		s.invalidate(ctx, q.Category)
	}
	return q, nil
}

// SetActive soft-deactivates or reactivates a question.
func (s *AdminService) SetActive(ctx context.Context, id string, active bool) (domain.Question, error) {
	q, err := s.questions.GetQuestion(ctx, id)
	if err != nil {
		return domain.Question{}, err
	}
	if err := s.questions.SetActive(ctx, id, active); err != nil {
		return domain.Question{}, fmt.Errorf("set active: %w", err)
	}
	q.Active = active
	s.invalidate(ctx, q.Category)
	return q, nil
}

// GetQuestion returns the full question including answer and counters.
func (s *AdminService) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	return s.questions.GetQuestion(ctx, id)
}

func (s *AdminService) invalidate(ctx context.Context, category string) {
	if s.catalog == nil {
		return
	}
	if err := s.catalog.Invalidate(ctx, category); err != nil {
		s.log.Warn("catalog invalidation failed", zap.String("category", category), zap.Error(err))
	}
}

func applyInput(q domain.Question, in QuestionInput) domain.Question {
	q.Text = strings.TrimSpace(in.Text)
	q.Options = append([]string(nil), in.Options...)
	q.CorrectIndex = in.CorrectIndex
	q.Category = strings.TrimSpace(in.Category)
	q.Difficulty = strings.TrimSpace(in.Difficulty)
	q.Points = in.Points
	if q.Points == 0 {
		q.Points = domain.PointsForDifficulty(q.Difficulty)
	}
	q.Explanation = in.Explanation
	return q
}
