package app

import (
	"context"

	"quiz-score-service/internal/domain"
)

// QuestionRepository persists questions (Postgres, Mongo, in-memory).
type QuestionRepository interface {
	// GetQuestion returns domain.ErrQuestionNotFound for unknown IDs.
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
	// ListByCategory returns active questions only.
	ListByCategory(ctx context.Context, category string) ([]domain.Question, error)
	Categories(ctx context.Context) ([]domain.CategorySummary, error)
	CreateQuestion(ctx context.Context, q domain.Question) error
	UpdateQuestion(ctx context.Context, q domain.Question) error
	SetActive(ctx context.Context, id string, active bool) error
	IncrementStats(ctx context.Context, deltas []domain.QuestionStatsDelta) error
}

// UserRepository persists user aggregates.
type UserRepository interface {
	CreateUser(ctx context.Context, u domain.User) error
	GetUser(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	// ApplyScore folds delta into the stored aggregate atomically and returns the result.
	ApplyScore(ctx context.Context, id string, delta domain.UserDelta) (domain.User, error)
	// TopByPoints orders by points desc, then user ID asc.
	TopByPoints(ctx context.Context, limit int) ([]domain.User, error)
}

// ScoreRepository is the append-only store of submissions.
type ScoreRepository interface {
	SaveScore(ctx context.Context, s domain.Score) error
	// ListByUser returns the newest records first.
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Score, error)
}

// QuestionCatalog serves category question lists, usually from a cache.
type QuestionCatalog interface {
	ListByCategory(ctx context.Context, category string) ([]domain.Question, error)
	Invalidate(ctx context.Context, category string) error
}

// SessionRepository abstracts where started quiz sessions live (in-memory, Redis).
type SessionRepository interface {
	Save(ctx context.Context, session domain.QuizSession) error
	// Get returns the session without consuming it.
	Get(ctx context.Context, id string) (domain.QuizSession, bool, error)
	// Take returns and removes the session.
	Take(ctx context.Context, id string) (domain.QuizSession, bool, error)
}

// LeaderboardStore ranks users by points.
type LeaderboardStore interface {
	Record(ctx context.Context, u domain.User) error
	Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// EventPublisher emits domain events to a broker.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// NopPublisher drops events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
