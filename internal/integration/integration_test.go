package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"quiz-score-service/internal/app"
	"quiz-score-service/internal/domain"
	mongostore "quiz-score-service/internal/infra/mongo"
	pgstore "quiz-score-service/internal/infra/postgres"
	infraredis "quiz-score-service/internal/infra/redis"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestPostgresSubmissionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL := startPostgres(t, ctx)
	redisURL := startRedis(t, ctx)

	if _, err := pgstore.Migrate(ctx, pgURL); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// A second run is a no-op.
	if applied, err := pgstore.Migrate(ctx, pgURL); err != nil || len(applied) != 0 {
		t.Fatalf("expected idempotent migrate, applied=%v err=%v", applied, err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	questions := pgstore.NewQuestionRepository(pool)
	users := pgstore.NewUserRepository(pool)
	scores := pgstore.NewScoreRepository(pool)
	catalog := infraredis.NewQuestionCatalog(redisClient, questions, 5*time.Minute)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	leaderboard := app.NewLeaderboardService(infraredis.NewLeaderboard(redisClient, users), 10, nil)

	admin := app.NewAdminService(questions, catalog, nil)
	quiz := app.NewQuizService(questions, catalog, sessions, 10)
	submissions := app.NewSubmissionService(questions, users, scores, sessions, leaderboard, nil, nil)
	auth := app.NewAuthService(users, "secret", time.Hour, nil)

	ids := seedScenario(t, ctx, admin)

	alice, err := auth.Register(ctx, "alice@example.com", "alice", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := auth.Register(ctx, "ALICE@example.com", "again", "password123"); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected duplicate email rejection, got %v", err)
	}

	started, err := quiz.Start(ctx, alice.ID, "general", 10)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(started.Questions) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(started.Questions))
	}

	res, err := submissions.Submit(ctx, alice.ID, app.SubmitRequest{
		SessionID: started.SessionID,
		TimeTaken: 42,
		Answers: []domain.AnswerSubmission{
			{QuestionID: ids[0], SelectedAnswer: "A"},
			{QuestionID: ids[1], SelectedAnswer: "B"},
			{QuestionID: ids[2], SelectedAnswer: "C"},
			{QuestionID: ids[3], SelectedAnswer: "D"},
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", res.Warnings)
	}
	if res.Score != 75 || res.CorrectAnswers != 3 || res.PointsEarned != 40 || res.Streak != 2 {
		t.Fatalf("unexpected result %+v", res)
	}

	history, err := scores.ListByUser(ctx, alice.ID, 10)
	if err != nil || len(history) != 1 || len(history[0].Answers) != 4 {
		t.Fatalf("unexpected history %+v err=%v", history, err)
	}

	q2, _ := questions.GetQuestion(ctx, ids[1])
	if q2.TimesAnswered != 1 || q2.TimesCorrect != 0 {
		t.Fatalf("unexpected counters %+v", q2)
	}

	// Concurrent submissions must not lose updates.
	runConcurrent(t, 2, func() error {
		_, err := submissions.Submit(ctx, alice.ID, app.SubmitRequest{
			Answers: []domain.AnswerSubmission{{QuestionID: ids[0], SelectedAnswer: "A"}},
		})
		return err
	})
	updated, err := users.GetUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if updated.Points != 60 || updated.TotalQuizzes != 3 {
		t.Fatalf("expected 60 points over 3 quizzes, got %+v", updated)
	}

	lb, err := leaderboard.Top(ctx, 5)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].Points != 60 || lb.Entries[0].Username != "alice" {
		t.Fatalf("unexpected leaderboard %+v", lb.Entries)
	}
}

func TestMongoApplyScoreIsAtomic(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	uri := startMongo(t, ctx)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database("quiz_test")
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	users := mongostore.NewUserRepository(db)

	if err := users.CreateUser(ctx, domain.User{ID: "u1", Email: "u1@example.com", Username: "u1", Points: 100, Level: 2}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := users.CreateUser(ctx, domain.User{ID: "u2", Email: "u1@example.com", Username: "dup"}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected duplicate email rejection, got %v", err)
	}

	runConcurrent(t, 2, func() error {
		_, err := users.ApplyScore(ctx, "u1", domain.UserDelta{Points: 10, CorrectAnswers: 1, TotalAnswers: 1, Streak: 1, Score: 100})
		return err
	})

	u, err := users.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.Points != 120 || u.TotalQuizzes != 2 || !u.HasBadge(domain.BadgePerfectScore) || len(u.Badges) != 1 {
		t.Fatalf("unexpected user %+v", u)
	}
	if _, err := users.ApplyScore(ctx, "ghost", domain.UserDelta{}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}

// seedScenario creates four questions whose correct options are A, A, C, D.
func seedScenario(t *testing.T, ctx context.Context, admin *app.AdminService) []string {
	t.Helper()
	inputs := []app.QuestionInput{
		{Text: "q1", Options: []string{"A", "B"}, CorrectIndex: 0, Category: "general", Difficulty: domain.DifficultyBeginner},
		{Text: "q2", Options: []string{"A", "B"}, CorrectIndex: 0, Category: "general", Difficulty: domain.DifficultyIntermediate},
		{Text: "q3", Options: []string{"C", "X"}, CorrectIndex: 0, Category: "general", Difficulty: domain.DifficultyAdvanced},
		{Text: "q4", Options: []string{"X", "D"}, CorrectIndex: 1, Category: "general"},
	}
	ids := make([]string, len(inputs))
	for i, in := range inputs {
		q, err := admin.CreateQuestion(ctx, in)
		if err != nil {
			t.Fatalf("create question %d: %v", i, err)
		}
		ids[i] = q.ID
	}
	return ids
}

func runConcurrent(t *testing.T, n int, fn func() error) {
	t.Helper()
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- fn()
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent call: %v", err)
		}
	}
}

func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest, port string) string {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", req.Image, err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()
	addr := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}, "5432/tcp")
	return fmt.Sprintf("postgres://quiz:quizpass@%s/quizdb?sslmode=disable", addr)
}

func startRedis(t *testing.T, ctx context.Context) string {
	t.Helper()
	addr := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}, "6379/tcp")
	return "redis://" + addr
}

func startMongo(t *testing.T, ctx context.Context) string {
	t.Helper()
	addr := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(60 * time.Second),
	}, "27017/tcp")
	return "mongodb://" + addr
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
