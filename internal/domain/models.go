package domain

import "time"

// Difficulty tiers with a known default point value. Admins may store other strings.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Badge names.
const (
	BadgePerfectScore = "Perfect Score"
	BadgeQuizMaster   = "Quiz Master"
)

// Question models a multiple-choice item. CorrectIndex points into Options.
type Question struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	CorrectIndex  int       `json:"correctIndex"`
	Category      string    `json:"category"`
	Difficulty    string    `json:"difficulty"`
	Points        int       `json:"points"` // defaults to 10 if zero
	Explanation   string    `json:"explanation,omitempty"`
	Active        bool      `json:"active"`
	TimesAnswered int       `json:"timesAnswered"`
	TimesCorrect  int       `json:"timesCorrect"`
	CreatedAt     time.Time `json:"createdAt"`
}

// PublicQuestion is what quiz takers see: no answer, no counters.
type PublicQuestion struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	Category   string   `json:"category"`
	Difficulty string   `json:"difficulty"`
	Points     int      `json:"points"`
}

// Public strips the answer from a question.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:         q.ID,
		Text:       q.Text,
		Options:    append([]string(nil), q.Options...),
		Category:   q.Category,
		Difficulty: q.Difficulty,
		Points:     q.EffectivePoints(),
	}
}

// EffectivePoints returns the point value awarded for a correct answer.
func (q Question) EffectivePoints() int {
	if q.Points > 0 {
		return q.Points
	}
	return DefaultPoints
}

// CategorySummary counts active questions per category.
type CategorySummary struct {
	Name          string `json:"name"`
	QuestionCount int    `json:"questionCount"`
}

// QuestionStatsDelta is the counter change for one question after a submission.
type QuestionStatsDelta struct {
	QuestionID string
	Answered   int
	Correct    int
}

// AnswerSubmission is one submitted answer. It is never stored on its own.
type AnswerSubmission struct {
	QuestionID     string `json:"questionId"`
	SelectedAnswer string `json:"selectedAnswer"`
	TimeSpent      int    `json:"timeSpent,omitempty"`
}

// AnswerOutcome is the per-question result kept inside a Score.
type AnswerOutcome struct {
	QuestionID     string `json:"questionId"`
	SelectedAnswer string `json:"selectedAnswer"`
	Correct        bool   `json:"correct"`
	TimeSpent      int    `json:"timeSpent"`
}

// Score is the persisted record of one submission.
type Score struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	SessionID      string          `json:"sessionId"`
	Score          int             `json:"score"`
	TimeTaken      int             `json:"timeTaken"`
	Answers        []AnswerOutcome `json:"answers"`
	TotalQuestions int             `json:"totalQuestions"`
	CorrectAnswers int             `json:"correctAnswers"`
	BestStreak     int             `json:"bestStreak"`
	PointsEarned   int             `json:"pointsEarned"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// User is the aggregate profile updated after each submission.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	PasswordHash   string    `json:"-"`
	Role           string    `json:"role"`
	Points         int       `json:"points"`
	Level          int       `json:"level"`
	TotalQuizzes   int       `json:"totalQuizzes"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalAnswers   int       `json:"totalAnswers"`
	BestStreak     int       `json:"bestStreak"`
	Badges         []string  `json:"badges"`
	Version        int64     `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// HasBadge reports whether the user already holds badge.
func (u User) HasBadge(badge string) bool {
	for _, b := range u.Badges {
		if b == badge {
			return true
		}
	}
	return false
}

// UserDelta carries the aggregate changes produced by one submission.
type UserDelta struct {
	Points         int
	CorrectAnswers int
	TotalAnswers   int
	Streak         int
	Score          int
}

// UserStats is the slice of the user aggregate returned with a submission.
type UserStats struct {
	Points int      `json:"points"`
	Level  int      `json:"level"`
	Badges []string `json:"badges"`
}

// Stats projects the aggregate onto UserStats.
func (u User) Stats() UserStats {
	badges := append([]string{}, u.Badges...)
	return UserStats{Points: u.Points, Level: u.Level, Badges: badges}
}

// LeaderboardEntry is a ranked view of a user.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Points   int    `json:"points"`
	Level    int    `json:"level"`
}

// Leaderboard is a ranked snapshot.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// QuizSession tracks a started quiz until it is submitted.
type QuizSession struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Category    string    `json:"category"`
	QuestionIDs []string  `json:"questionIds"`
	StartedAt   time.Time `json:"startedAt"`
}
