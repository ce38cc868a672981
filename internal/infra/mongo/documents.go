package mongo

import (
	"time"

	"quiz-score-service/internal/domain"
)

type questionDoc struct {
	ID            string    `bson:"_id"`
	Text          string    `bson:"text"`
	Options       []string  `bson:"options"`
	CorrectIndex  int       `bson:"correct_index"`
	Category      string    `bson:"category"`
	Difficulty    string    `bson:"difficulty"`
	Points        int       `bson:"points"`
	Explanation   string    `bson:"explanation"`
	Active        bool      `bson:"active"`
	TimesAnswered int       `bson:"times_answered"`
	TimesCorrect  int       `bson:"times_correct"`
	CreatedAt     time.Time `bson:"created_at"`
}

func fromQuestion(q domain.Question) questionDoc {
	return questionDoc{
		ID: q.ID, Text: q.Text, Options: q.Options, CorrectIndex: q.CorrectIndex,
		Category: q.Category, Difficulty: q.Difficulty, Points: q.Points, Explanation: q.Explanation,
		Active: q.Active, TimesAnswered: q.TimesAnswered, TimesCorrect: q.TimesCorrect, CreatedAt: q.CreatedAt,
	}
}

func (d questionDoc) toDomain() domain.Question {
	return domain.Question{
		ID: d.ID, Text: d.Text, Options: d.Options, CorrectIndex: d.CorrectIndex,
		Category: d.Category, Difficulty: d.Difficulty, Points: d.Points, Explanation: d.Explanation,
		Active: d.Active, TimesAnswered: d.TimesAnswered, TimesCorrect: d.TimesCorrect, CreatedAt: d.CreatedAt,
	}
}

type userDoc struct {
	ID             string    `bson:"_id"`
	Email          string    `bson:"email"`
	Username       string    `bson:"username"`
	PasswordHash   string    `bson:"password_hash"`
	Role           string    `bson:"role"`
	Points         int       `bson:"points"`
	Level          int       `bson:"level"`
	TotalQuizzes   int       `bson:"total_quizzes"`
	CorrectAnswers int       `bson:"correct_answers"`
	TotalAnswers   int       `bson:"total_answers"`
	BestStreak     int       `bson:"best_streak"`
	Badges         []string  `bson:"badges"`
	Version        int64     `bson:"version"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func fromUser(u domain.User) userDoc {
	badges := u.Badges
	if badges == nil {
		badges = []string{}
	}
	return userDoc{
		ID: u.ID, Email: u.Email, Username: u.Username, PasswordHash: u.PasswordHash, Role: u.Role,
		Points: u.Points, Level: u.Level, TotalQuizzes: u.TotalQuizzes, CorrectAnswers: u.CorrectAnswers,
		TotalAnswers: u.TotalAnswers, BestStreak: u.BestStreak, Badges: badges, Version: u.Version,
		CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func (d userDoc) toDomain() domain.User {
	badges := d.Badges
	if badges == nil {
		badges = []string{}
	}
	return domain.User{
		ID: d.ID, Email: d.Email, Username: d.Username, PasswordHash: d.PasswordHash, Role: d.Role,
		Points: d.Points, Level: d.Level, TotalQuizzes: d.TotalQuizzes, CorrectAnswers: d.CorrectAnswers,
		TotalAnswers: d.TotalAnswers, BestStreak: d.BestStreak, Badges: badges, Version: d.Version,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

type answerDoc struct {
	QuestionID     string `bson:"question_id"`
	SelectedAnswer string `bson:"selected_answer"`
	Correct        bool   `bson:"correct"`
	TimeSpent      int    `bson:"time_spent"`
}

type scoreDoc struct {
	ID             string      `bson:"_id"`
	UserID         string      `bson:"user_id"`
	SessionID      string      `bson:"session_id"`
	Score          int         `bson:"score"`
	TimeTaken      int         `bson:"time_taken"`
	Answers        []answerDoc `bson:"answers"`
	TotalQuestions int         `bson:"total_questions"`
	CorrectAnswers int         `bson:"correct_answers"`
	BestStreak     int         `bson:"best_streak"`
	PointsEarned   int         `bson:"points_earned"`
	CreatedAt      time.Time   `bson:"created_at"`
}

func fromScore(s domain.Score) scoreDoc {
	answers := make([]answerDoc, len(s.Answers))
	for i, a := range s.Answers {
		answers[i] = answerDoc{QuestionID: a.QuestionID, SelectedAnswer: a.SelectedAnswer, Correct: a.Correct, TimeSpent: a.TimeSpent}
	}
	return scoreDoc{
		ID: s.ID, UserID: s.UserID, SessionID: s.SessionID, Score: s.Score, TimeTaken: s.TimeTaken,
		Answers: answers, TotalQuestions: s.TotalQuestions, CorrectAnswers: s.CorrectAnswers,
		BestStreak: s.BestStreak, PointsEarned: s.PointsEarned, CreatedAt: s.CreatedAt,
	}
}

func (d scoreDoc) toDomain() domain.Score {
	answers := make([]domain.AnswerOutcome, len(d.Answers))
	for i, a := range d.Answers {
		answers[i] = domain.AnswerOutcome{QuestionID: a.QuestionID, SelectedAnswer: a.SelectedAnswer, Correct: a.Correct, TimeSpent: a.TimeSpent}
	}
	return domain.Score{
		ID: d.ID, UserID: d.UserID, SessionID: d.SessionID, Score: d.Score, TimeTaken: d.TimeTaken,
		Answers: answers, TotalQuestions: d.TotalQuestions, CorrectAnswers: d.CorrectAnswers,
		BestStreak: d.BestStreak, PointsEarned: d.PointsEarned, CreatedAt: d.CreatedAt,
	}
}
