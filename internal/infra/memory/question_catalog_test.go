package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"quiz-score-service/internal/domain"
)

func TestQuestionCatalogCaches(t *testing.T) {
	loader := &countingLoader{CategoryLoader: NewQuestionRepository(sampleQuestions()...)}
	catalog := NewQuestionCatalog(loader, time.Minute)

	qs, err := catalog.ListByCategory(context.Background(), "math")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 active math questions, got %d", len(qs))
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader once, got %d", loader.count())
	}

	if _, err := catalog.ListByCategory(context.Background(), "math"); err != nil {
		t.Fatalf("list 2: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.count())
	}
}

func TestQuestionCatalogInvalidateAndExpiry(t *testing.T) {
	loader := &countingLoader{CategoryLoader: NewQuestionRepository(sampleQuestions()...)}
	catalog := NewQuestionCatalog(loader, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	catalog.clock = func() time.Time { return now }

	ctx := context.Background()
	_, _ = catalog.ListByCategory(ctx, "math")
	_ = catalog.Invalidate(ctx, "math")
	_, _ = catalog.ListByCategory(ctx, "math")
	if loader.count() != 2 {
		t.Fatalf("expected reload after invalidate, got %d calls", loader.count())
	}

	now = now.Add(2 * time.Minute)
	_, _ = catalog.ListByCategory(ctx, "math")
	if loader.count() != 3 {
		t.Fatalf("expected reload after expiry, got %d calls", loader.count())
	}
}

func TestQuestionCatalogDropsLoadRacingInvalidate(t *testing.T) {
	loader := &gatedLoader{
		CategoryLoader: NewQuestionRepository(sampleQuestions()...),
		started:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	catalog := NewQuestionCatalog(loader, time.Minute)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := catalog.ListByCategory(ctx, "math")
		done <- err
	}()
	<-loader.started
	_ = catalog.Invalidate(ctx, "math")
	close(loader.release)
	if err := <-done; err != nil {
		t.Fatalf("list: %v", err)
	}

	if _, ok := catalog.lookup("math"); ok {
		t.Fatalf("load that raced an invalidate must not be cached")
	}
}

// gatedLoader blocks its first call until release is closed.
type gatedLoader struct {
	CategoryLoader
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (l *gatedLoader) ListByCategory(ctx context.Context, category string) ([]domain.Question, error) {
	l.once.Do(func() {
		close(l.started)
		<-l.release
	})
	return l.CategoryLoader.ListByCategory(ctx, category)
}

type countingLoader struct {
	CategoryLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) ListByCategory(ctx context.Context, category string) ([]domain.Question, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.CategoryLoader.ListByCategory(ctx, category)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Text: "What is 2 + 2?", Options: []string{"3", "4"}, CorrectIndex: 1, Category: "math", Points: 10, Active: true},
		{ID: "q2", Text: "What is 3 * 3?", Options: []string{"6", "9"}, CorrectIndex: 1, Category: "math", Points: 15, Active: true},
		{ID: "q3", Text: "Retired", Options: []string{"a", "b"}, CorrectIndex: 0, Category: "math", Active: false},
		{ID: "q4", Text: "Capital of France?", Options: []string{"Paris", "Rome"}, CorrectIndex: 0, Category: "geo", Active: true},
	}
}
