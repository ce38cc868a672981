package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"quiz-score-service/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// ScoreRepository appends submissions to the scores table. Answers are kept as JSONB.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

func (r *ScoreRepository) SaveScore(ctx context.Context, s domain.Score) error {
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO scores (id, user_id, session_id, score, time_taken, answers,
		total_questions, correct_answers, best_streak, points_earned, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		s.ID, s.UserID, s.SessionID, s.Score, s.TimeTaken, answers,
		s.TotalQuestions, s.CorrectAnswers, s.BestStreak, s.PointsEarned, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (r *ScoreRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Score, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, session_id, score, time_taken, answers,
		total_questions, correct_answers, best_streak, points_earned, created_at
		FROM scores WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Score, 0)
	for rows.Next() {
		var s domain.Score
		var answers []byte
		if err := rows.Scan(&s.ID, &s.UserID, &s.SessionID, &s.Score, &s.TimeTaken, &answers,
			&s.TotalQuestions, &s.CorrectAnswers, &s.BestStreak, &s.PointsEarned, &s.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answers, &s.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
