package app_test

import (
	"context"
	"testing"
	"time"

	"quiz-score-service/internal/app"
	"quiz-score-service/internal/domain"
	"quiz-score-service/internal/infra/memory"
)

func TestLeaderboardRanksByPointsThenID(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	for _, u := range []domain.User{
		{ID: "u3", Email: "3@x", Username: "carol", Points: 150},
		{ID: "u1", Email: "1@x", Username: "alice", Points: 300},
		{ID: "u2", Email: "2@x", Username: "bob", Points: 150},
		{ID: "u4", Email: "4@x", Username: "dave", Points: 10},
	} {
		_ = users.CreateUser(ctx, u)
	}
	svc := app.NewLeaderboardService(app.NewRepositoryLeaderboard(users), 10, nil)

	lb, err := svc.Top(ctx, 3)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	want := []string{"u1", "u2", "u3"}
	if len(lb.Entries) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), lb.Entries)
	}
	for i, id := range want {
		if lb.Entries[i].UserID != id || lb.Entries[i].Rank != i+1 {
			t.Fatalf("position %d: expected %s rank %d, got %+v", i, id, i+1, lb.Entries[i])
		}
	}

	lb, _ = svc.Top(ctx, 0)
	if len(lb.Entries) != 4 {
		t.Fatalf("default limit should include all 4 users, got %d", len(lb.Entries))
	}
}

func TestClampLimit(t *testing.T) {
	if app.ClampLimit(0) != 10 || app.ClampLimit(-3) != 10 || app.ClampLimit(500) != 100 || app.ClampLimit(7) != 7 {
		t.Fatalf("unexpected clamping")
	}
}

func TestLeaderboardSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	ch, cancel, err := env.leaderboard.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	initial := <-ch
	if len(initial.Entries) != 1 || initial.Entries[0].Points != 100 {
		t.Fatalf("unexpected initial snapshot %+v", initial.Entries)
	}

	_, err = env.submissions.Submit(ctx, "u1", app.SubmitRequest{
		Answers: []domain.AnswerSubmission{{QuestionID: "q3", SelectedAnswer: "C"}},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	select {
	case update := <-ch:
		if len(update.Entries) != 1 || update.Entries[0].Points != 120 {
			t.Fatalf("expected updated points 120, got %+v", update.Entries)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for leaderboard update")
	}
}

func TestLeaderboardCancelClosesChannel(t *testing.T) {
	env := newTestEnv(t)
	ch, cancel, err := env.leaderboard.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	<-ch
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
}
