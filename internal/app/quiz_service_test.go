package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-score-service/internal/app"
	"quiz-score-service/internal/domain"
	"quiz-score-service/internal/infra/memory"
)

func TestStartQuizHidesAnswersAndOpensSession(t *testing.T) {
	ctx := context.Background()
	questions, catalog, sessions := newQuizDeps()
	svc := app.NewQuizService(questions, catalog, sessions, 2)

	started, err := svc.Start(ctx, "u1", "general", 0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.SessionID == "" || started.Category != "general" {
		t.Fatalf("unexpected start %+v", started)
	}
	if len(started.Questions) != 2 {
		t.Fatalf("expected default limit of 2 questions, got %d", len(started.Questions))
	}
	for _, q := range started.Questions {
		if q.ID == "inactive" {
			t.Fatalf("inactive question served")
		}
	}

	session, ok, err := sessions.Take(ctx, started.SessionID)
	if err != nil || !ok {
		t.Fatalf("expected stored session, ok=%v err=%v", ok, err)
	}
	if session.UserID != "u1" || len(session.QuestionIDs) != 2 {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestStartQuizUnknownCategory(t *testing.T) {
	questions, catalog, sessions := newQuizDeps()
	svc := app.NewQuizService(questions, catalog, sessions, 10)
	if _, err := svc.Start(context.Background(), "u1", "history", 5); !errors.Is(err, domain.ErrCategoryEmpty) {
		t.Fatalf("expected empty category error, got %v", err)
	}
	if _, err := svc.Start(context.Background(), "u1", "  ", 5); !errors.Is(err, domain.ErrCategoryEmpty) {
		t.Fatalf("expected blank category error, got %v", err)
	}
}

func TestAdminLifecycleInvalidatesCatalog(t *testing.T) {
	ctx := context.Background()
	questions, catalog, sessions := newQuizDeps()
	admin := app.NewAdminService(questions, catalog, nil)
	quiz := app.NewQuizService(questions, catalog, sessions, 50)

	before, _ := catalog.ListByCategory(ctx, "general")

	created, err := admin.CreateQuestion(ctx, app.QuestionInput{
		Text:         "Largest planet?",
		Options:      []string{"Mars", "Jupiter"},
		CorrectIndex: 1,
		Category:     "general",
		Difficulty:   domain.DifficultyAdvanced,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Points != 20 || !created.Active {
		t.Fatalf("expected advanced default of 20 points and active, got %+v", created)
	}

	after, _ := catalog.ListByCategory(ctx, "general")
	if len(after) != len(before)+1 {
		t.Fatalf("expected catalog refresh after create: %d -> %d", len(before), len(after))
	}

	if _, err := admin.SetActive(ctx, created.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	started, _ := quiz.Start(ctx, "u1", "general", 50)
	for _, q := range started.Questions {
		if q.ID == created.ID {
			t.Fatalf("deactivated question served")
		}
	}

	updated, err := admin.UpdateQuestion(ctx, created.ID, app.QuestionInput{
		Text:         "Largest planet in the solar system?",
		Options:      []string{"Mars", "Jupiter", "Saturn"},
		CorrectIndex: 1,
		Category:     "science",
		Difficulty:   "galactic",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Points != domain.DefaultPoints || updated.Active {
		t.Fatalf("unexpected update result %+v", updated)
	}

	if _, err := admin.CreateQuestion(ctx, app.QuestionInput{Text: "bad", Options: []string{"only"}, Category: "x"}); !errors.Is(err, domain.ErrInvalidQuestion) {
		t.Fatalf("expected invalid question, got %v", err)
	}
	if _, err := admin.SetActive(ctx, "missing", true); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUserServiceViews(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	users := app.NewUserService(env.users, env.scores)

	_, _ = env.submissions.Submit(ctx, "u1", app.SubmitRequest{Answers: []domain.AnswerSubmission{
		{QuestionID: "q1", SelectedAnswer: "A"},
		{QuestionID: "q2", SelectedAnswer: "B"},
	}})

	stats, err := users.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Points != 110 || stats.Level != 2 || stats.NextLevelPoints != 200 || stats.Accuracy != 50 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	history, _ := users.History(ctx, "u1", 0)
	if len(history) != 1 || history[0].Score != 50 {
		t.Fatalf("unexpected history %+v", history)
	}

	ach, _ := users.Achievements(ctx, "u1")
	if ach.LevelProgress != 10 || len(ach.Badges) != 0 {
		t.Fatalf("unexpected achievements %+v", ach)
	}

	if _, err := users.Stats(ctx, "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func newQuizDeps() (*memory.QuestionRepository, *memory.QuestionCatalog, *memory.SessionStore) {
	questions := memory.NewQuestionRepository(
		domain.Question{ID: "g1", Text: "1", Options: []string{"a", "b"}, Category: "general", Active: true},
		domain.Question{ID: "g2", Text: "2", Options: []string{"a", "b"}, Category: "general", Active: true},
		domain.Question{ID: "g3", Text: "3", Options: []string{"a", "b"}, Category: "general", Active: true},
		domain.Question{ID: "inactive", Text: "4", Options: []string{"a", "b"}, Category: "general", Active: false},
	)
	return questions, memory.NewQuestionCatalog(questions, time.Minute), memory.NewSessionStore(time.Hour)
}
