package app

import (
	"context"

	"quiz-score-service/internal/domain"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// ProfileStats summarizes a user's cumulative performance.
type ProfileStats struct {
	UserID          string   `json:"userId"`
	Username        string   `json:"username"`
	Points          int      `json:"points"`
	Level           int      `json:"level"`
	NextLevelPoints int      `json:"nextLevelPoints"`
	TotalQuizzes    int      `json:"totalQuizzes"`
	CorrectAnswers  int      `json:"correctAnswers"`
	TotalAnswers    int      `json:"totalAnswers"`
	Accuracy        int      `json:"accuracy"`
	BestStreak      int      `json:"bestStreak"`
	Badges          []string `json:"badges"`
}

// Achievements lists earned badges and level progress.
type Achievements struct {
	Badges          []string `json:"badges"`
	Level           int      `json:"level"`
	Points          int      `json:"points"`
	NextLevelPoints int      `json:"nextLevelPoints"`
	LevelProgress   int      `json:"levelProgress"`
}

// UserService serves profile, history and achievement views.
type UserService struct {
	users  UserRepository
	scores ScoreRepository
}

func NewUserService(users UserRepository, scores ScoreRepository) *UserService {
	return &UserService{users: users, scores: scores}
}

// Profile returns the user aggregate.
func (s *UserService) Profile(ctx context.Context, userID string) (domain.User, error) {
	return s.users.GetUser(ctx, userID)
}

// Stats returns cumulative statistics. Accuracy is a rounded percentage.
func (s *UserService) Stats(ctx context.Context, userID string) (ProfileStats, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return ProfileStats{}, err
	}
	return ProfileStats{
		UserID:          u.ID,
		Username:        u.Username,
		Points:          u.Points,
		Level:           domain.Level(u.Points),
		NextLevelPoints: domain.NextLevelPoints(u.Points),
		TotalQuizzes:    u.TotalQuizzes,
		CorrectAnswers:  u.CorrectAnswers,
		TotalAnswers:    u.TotalAnswers,
		Accuracy:        domain.ScorePercent(u.CorrectAnswers, u.TotalAnswers),
		BestStreak:      u.BestStreak,
		Badges:          nonNil(u.Badges),
	}, nil
}

// History returns the user's most recent submissions.
func (s *UserService) History(ctx context.Context, userID string, limit int) ([]domain.Score, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	scores, err := s.scores.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if scores == nil {
		scores = []domain.Score{}
	}
	return scores, nil
}

// Achievements returns badges and progress through the current level.
func (s *UserService) Achievements(ctx context.Context, userID string) (Achievements, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return Achievements{}, err
	}
	return Achievements{
		Badges:          nonNil(u.Badges),
		Level:           domain.Level(u.Points),
		Points:          u.Points,
		NextLevelPoints: domain.NextLevelPoints(u.Points),
		LevelProgress:   u.Points % domain.PointsPerLevel,
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
