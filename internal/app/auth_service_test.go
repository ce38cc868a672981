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

func TestRegisterLoginAndParseToken(t *testing.T) {
	ctx := context.Background()
	auth := app.NewAuthService(memory.NewUserRepository(), "test-secret", time.Hour, []string{"Boss@Example.com"})

	user, err := auth.Register(ctx, " Alice@Example.com ", "alice", "correct horse")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "alice@example.com" || user.Role != domain.RoleUser || user.Level != 1 {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.PasswordHash == "" || user.PasswordHash == "correct horse" {
		t.Fatalf("password must be hashed")
	}

	if _, err := auth.Register(ctx, "alice@example.com", "again", "whatever1"); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}

	if _, _, err := auth.Login(ctx, "alice@example.com", "wrong password"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, _, err := auth.Login(ctx, "nobody@example.com", "correct horse"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}

	token, logged, err := auth.Login(ctx, "ALICE@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := auth.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != logged.ID || claims.Role != domain.RoleUser {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := auth.ParseToken(token + "x"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected tampered token rejection, got %v", err)
	}

	other := app.NewAuthService(memory.NewUserRepository(), "other-secret", time.Hour, nil)
	if _, err := other.ParseToken(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected foreign secret rejection, got %v", err)
	}
}

func TestRegisterGrantsAdminByEmail(t *testing.T) {
	auth := app.NewAuthService(memory.NewUserRepository(), "s", time.Hour, []string{"Boss@Example.com"})
	u, err := auth.Register(context.Background(), "boss@example.com", "boss", "password1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", u.Role)
	}
}

func TestExpiredTokenIsRejected(t *testing.T) {
	auth := app.NewAuthService(memory.NewUserRepository(), "s", time.Millisecond, nil)
	token, err := auth.IssueToken(domain.User{ID: "u1", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	if _, err := auth.ParseToken(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected expired token rejection, got %v", err)
	}
}
