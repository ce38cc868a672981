package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quiz-score-service/internal/domain"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const userColumns = `id, email, username, password_hash, role, points, level, total_quizzes,
	correct_answers, total_answers, best_streak, badges, version, created_at, updated_at`

const uniqueViolation = "23505"

// UserRepository stores user aggregates. ApplyScore locks the row for the
// duration of the read-modify-write.
type UserRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool, now: time.Now}
}

func (r *UserRepository) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		u.ID, u.Email, u.Username, u.PasswordHash, u.Role, u.Points, u.Level, u.TotalQuizzes,
		u.CorrectAnswers, u.TotalAnswers, u.BestStreak, nonNil(u.Badges), u.Version, u.CreatedAt, u.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUser(ctx context.Context, id string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *UserRepository) ApplyScore(ctx context.Context, id string, delta domain.UserDelta) (domain.User, error) {
	var updated domain.User
	err := r.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		current, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1 FOR UPDATE`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrUserNotFound
		}
		if err != nil {
			return err
		}

		updated = domain.ApplyDelta(current, delta)
		updated.UpdatedAt = r.now().UTC()
		_, err = tx.Exec(ctx, `UPDATE users SET points=$2, level=$3, total_quizzes=$4,
			correct_answers=$5, total_answers=$6, best_streak=$7, badges=$8, version=$9, updated_at=$10
			WHERE id=$1`,
			id, updated.Points, updated.Level, updated.TotalQuizzes, updated.CorrectAnswers,
			updated.TotalAnswers, updated.BestStreak, nonNil(updated.Badges), updated.Version, updated.UpdatedAt)
		return err
	})
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, err
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("apply score: %w", err)
	}
	return updated, nil
}

func (r *UserRepository) TopByPoints(ctx context.Context, limit int) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users
		ORDER BY points DESC, id ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	defer rows.Close()

	out := make([]domain.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.Points, &u.Level,
		&u.TotalQuizzes, &u.CorrectAnswers, &u.TotalAnswers, &u.BestStreak, &u.Badges, &u.Version,
		&u.CreatedAt, &u.UpdatedAt)
	if u.Badges == nil {
		u.Badges = []string{}
	}
	return u, err
}
