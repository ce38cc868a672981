package cli

import (
	"context"
	"testing"

	"quiz-score-service/internal/app"
	"quiz-score-service/internal/config"
	"quiz-score-service/internal/infra/memory"
	redisstore "quiz-score-service/internal/infra/redis"

	miniredis "github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"
)

func TestBuildDepsMemoryBackend(t *testing.T) {
	var cfg config.Config
	cfg.Storage.Backend = config.BackendMemory

	d, err := buildDeps(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("build deps: %v", err)
	}
	defer d.Close()

	if _, ok := d.users.(*memory.UserRepository); !ok {
		t.Fatalf("expected memory users, got %T", d.users)
	}
	if _, ok := d.catalog.(*memory.QuestionCatalog); !ok {
		t.Fatalf("expected memory catalog, got %T", d.catalog)
	}
	if _, ok := d.events.(app.NopPublisher); !ok {
		t.Fatalf("expected no-op publisher, got %T", d.events)
	}
}

func TestBuildDepsUsesRedisWhenConfigured(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	var cfg config.Config
	cfg.Storage.Backend = config.BackendMemory
	cfg.Redis.Addr = mr.Addr()

	d, err := buildDeps(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("build deps: %v", err)
	}
	defer d.Close()

	if _, ok := d.sessions.(*redisstore.SessionStore); !ok {
		t.Fatalf("expected redis sessions, got %T", d.sessions)
	}
	if _, ok := d.leaderboard.(*redisstore.Leaderboard); !ok {
		t.Fatalf("expected redis leaderboard, got %T", d.leaderboard)
	}
}

func TestBuildDepsRejectsUnknownBackend(t *testing.T) {
	var cfg config.Config
	cfg.Storage.Backend = "cassandra"
	if _, err := buildDeps(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
