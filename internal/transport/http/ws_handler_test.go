package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"quiz-score-service/internal/app"
	"quiz-score-service/internal/domain"

	"github.com/gorilla/websocket"
)

func TestLeaderboardFeedPushesSnapshots(t *testing.T) {
	srv := newTestServer(t)
	player := srv.register(t, "player@example.com", "player")
	q, err := srv.container.Admin.CreateQuestion(context.Background(), app.QuestionInput{
		Text: "2+2?", Options: []string{"3", "4"}, CorrectIndex: 1, Category: "math",
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}

	u := "ws" + srv.URL[len("http"):] + "/ws/leaderboard"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the current snapshot first.
	initial := readSnapshot(t, conn)
	if len(initial.Entries) != 1 || initial.Entries[0].Points != 0 {
		t.Fatalf("unexpected initial snapshot %+v", initial)
	}

	status := srv.do(t, http.MethodPost, "/api/quiz/submit", player, map[string]any{
		"answers": []map[string]any{{"questionId": q.ID, "selectedAnswer": "4"}},
	}, nil)
	if status != http.StatusOK {
		t.Fatalf("submit status %d", status)
	}

	update := readSnapshot(t, conn)
	if len(update.Entries) != 1 || update.Entries[0].Points != 10 || update.Entries[0].Username != "player" {
		t.Fatalf("unexpected update %+v", update)
	}
}

func readSnapshot(t *testing.T, conn *websocket.Conn) domain.Leaderboard {
	t.Helper()
	var msg struct {
		Type    string             `json:"type"`
		Payload domain.Leaderboard `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "leaderboard" {
		t.Fatalf("expected leaderboard message, got %s", msg.Type)
	}
	return msg.Payload
}
