package domain

import (
	"fmt"
	"math"
	"strings"
)

const (
	// DefaultPoints is awarded for questions without an explicit point value.
	DefaultPoints = 10
	// PointsPerLevel is the width of one level band.
	PointsPerLevel = 100
	// QuizMasterThreshold is the lifetime correct answer count for the Quiz Master badge.
	QuizMasterThreshold = 50
)

// PointsForDifficulty maps a difficulty tier to its default point value.
func PointsForDifficulty(difficulty string) int {
	switch difficulty {
	case DifficultyBeginner:
		return 10
	case DifficultyIntermediate:
		return 15
	case DifficultyAdvanced:
		return 20
	default:
		return DefaultPoints
	}
}

// Level derives the level from cumulative points.
func Level(points int) int {
	if points < 0 {
		points = 0
	}
	return points/PointsPerLevel + 1
}

// NextLevelPoints returns the point total at which the next level starts.
func NextLevelPoints(points int) int {
	return Level(points) * PointsPerLevel
}

// ScorePercent returns round(correct/total*100), rounding halves up.
func ScorePercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(correct)*100/float64(total) + 0.5))
}

// ResolveOption finds the index of selected in options using exact equality.
func ResolveOption(options []string, selected string) (int, bool) {
	for i, opt := range options {
		if opt == selected {
			return i, true
		}
	}
	return -1, false
}

// IsCorrect reports whether selected resolves to the question's correct option.
// Unresolvable selections are incorrect.
func (q Question) IsCorrect(selected string) bool {
	idx, ok := ResolveOption(q.Options, selected)
	return ok && idx == q.CorrectIndex
}

// Validate checks admin-supplied question content.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidQuestion)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: at least two options are required", ErrInvalidQuestion)
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if opt == "" {
			return fmt.Errorf("%w: options must not be empty", ErrInvalidQuestion)
		}
		if _, dup := seen[opt]; dup {
			return fmt.Errorf("%w: duplicate option %q", ErrInvalidQuestion, opt)
		}
		seen[opt] = struct{}{}
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("%w: correct index %d out of range", ErrInvalidQuestion, q.CorrectIndex)
	}
	if strings.TrimSpace(q.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidQuestion)
	}
	if q.Points < 0 {
		return fmt.Errorf("%w: points must not be negative", ErrInvalidQuestion)
	}
	return nil
}

// ApplyDelta folds one submission into the user aggregate. Level is recomputed
// from the new point total and badges are only ever added.
func ApplyDelta(u User, d UserDelta) User {
	u.Points += d.Points
	u.TotalQuizzes++
	u.CorrectAnswers += d.CorrectAnswers
	u.TotalAnswers += d.TotalAnswers
	if d.Streak > u.BestStreak {
		u.BestStreak = d.Streak
	}
	u.Level = Level(u.Points)

	badges := append([]string{}, u.Badges...)
	if d.Score == 100 && !u.HasBadge(BadgePerfectScore) {
		badges = append(badges, BadgePerfectScore)
	}
	u.Badges = badges
	if u.CorrectAnswers >= QuizMasterThreshold && !u.HasBadge(BadgeQuizMaster) {
		u.Badges = append(u.Badges, BadgeQuizMaster)
	}
	u.Version++
	return u
}
