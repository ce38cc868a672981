package postgres

import (
	"context"
	"errors"
	"fmt"

	"quiz-score-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const questionColumns = `id, text, options, correct_index, category, difficulty, points, explanation,
	active, times_answered, times_correct, created_at`

// QuestionRepository stores the question bank in the questions table.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

func (r *QuestionRepository) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id=$1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

func (r *QuestionRepository) ListByCategory(ctx context.Context, category string) ([]domain.Question, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+questionColumns+` FROM questions
		WHERE category=$1 AND active ORDER BY created_at, id`, category)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *QuestionRepository) Categories(ctx context.Context) ([]domain.CategorySummary, error) {
	rows, err := r.pool.Query(ctx, `SELECT category, COUNT(*) FROM questions
		WHERE active GROUP BY category ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]domain.CategorySummary, 0)
	for rows.Next() {
		var c domain.CategorySummary
		var n int64
		if err := rows.Scan(&c.Name, &n); err != nil {
			return nil, err
		}
		c.QuestionCount = int(n)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *QuestionRepository) CreateQuestion(ctx context.Context, q domain.Question) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO questions (`+questionColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		q.ID, q.Text, nonNil(q.Options), q.CorrectIndex, q.Category, q.Difficulty, q.Points,
		q.Explanation, q.Active, q.TimesAnswered, q.TimesCorrect, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

// UpdateQuestion replaces content fields; counters and created_at are kept.
func (r *QuestionRepository) UpdateQuestion(ctx context.Context, q domain.Question) error {
	tag, err := r.pool.Exec(ctx, `UPDATE questions SET text=$2, options=$3, correct_index=$4,
		category=$5, difficulty=$6, points=$7, explanation=$8, active=$9 WHERE id=$1`,
		q.ID, q.Text, nonNil(q.Options), q.CorrectIndex, q.Category, q.Difficulty, q.Points,
		q.Explanation, q.Active)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (r *QuestionRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE questions SET active=$2 WHERE id=$1`, id, active)
	if err != nil {
		return fmt.Errorf("set question active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// IncrementStats adds counters in a single batch; unknown IDs are ignored.
func (r *QuestionRepository) IncrementStats(ctx context.Context, deltas []domain.QuestionStatsDelta) error {
	if len(deltas) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, d := range deltas {
		batch.Queue(`UPDATE questions SET times_answered = times_answered + $2,
			times_correct = times_correct + $3 WHERE id=$1`, d.QuestionID, d.Answered, d.Correct)
	}
	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range deltas {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("increment question stats: %w", err)
		}
	}
	return nil
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var q domain.Question
	err := row.Scan(&q.ID, &q.Text, &q.Options, &q.CorrectIndex, &q.Category, &q.Difficulty,
		&q.Points, &q.Explanation, &q.Active, &q.TimesAnswered, &q.TimesCorrect, &q.CreatedAt)
	return q, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
