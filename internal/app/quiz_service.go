package app

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"quiz-score-service/internal/domain"

	"github.com/google/uuid"
)

// StartedQuiz is returned when a user starts a category quiz.
type StartedQuiz struct {
	SessionID string                  `json:"sessionId"`
	Category  string                  `json:"category"`
	Questions []domain.PublicQuestion `json:"questions"`
	StartedAt time.Time               `json:"startedAt"`
}

// QuizService contains the quiz-taking use cases.
type QuizService struct {
	questions    QuestionRepository
	catalog      QuestionCatalog
	sessions     SessionRepository
	defaultLimit int
	now          func() time.Time
	shuffle      func(n int, swap func(i, j int))
}

func NewQuizService(questions QuestionRepository, catalog QuestionCatalog, sessions SessionRepository, defaultLimit int) *QuizService {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &QuizService{
		questions:    questions,
		catalog:      catalog,
		sessions:     sessions,
		defaultLimit: defaultLimit,
		now:          time.Now,
		shuffle:      rand.Shuffle,
	}
}

// Categories lists the categories that have active questions.
func (s *QuizService) Categories(ctx context.Context) ([]domain.CategorySummary, error) {
	return s.questions.Categories(ctx)
}

// Start picks up to limit shuffled active questions from a category and opens a session.
func (s *QuizService) Start(ctx context.Context, userID, category string, limit int) (StartedQuiz, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return StartedQuiz{}, fmt.Errorf("%w: category is required", domain.ErrCategoryEmpty)
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	questions, err := s.catalog.ListByCategory(ctx, category)
	if err != nil {
		return StartedQuiz{}, err
	}
	if len(questions) == 0 {
		return StartedQuiz{}, domain.ErrCategoryEmpty
	}

	picked := append([]domain.Question(nil), questions...)
	s.shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	if len(picked) > limit {
		picked = picked[:limit]
	}

	session := domain.QuizSession{
		ID:          uuid.NewString(),
		UserID:      userID,
		Category:    category,
		QuestionIDs: make([]string, 0, len(picked)),
		StartedAt:   s.now().UTC(),
	}
	public := make([]domain.PublicQuestion, 0, len(picked))
	for _, q := range picked {
		session.QuestionIDs = append(session.QuestionIDs, q.ID)
		public = append(public, q.Public())
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return StartedQuiz{}, fmt.Errorf("save session: %w", err)
	}

	return StartedQuiz{
		SessionID: session.ID,
		Category:  category,
		Questions: public,
		StartedAt: session.StartedAt,
	}, nil
}
