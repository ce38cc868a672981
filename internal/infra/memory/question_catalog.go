package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quiz-score-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// CategoryLoader fetches active questions of a category from a backing store.
type CategoryLoader interface {
	ListByCategory(ctx context.Context, category string) ([]domain.Question, error)
}

// QuestionCatalog caches category question lists with TTL to avoid repeated DB hits.
type QuestionCatalog struct {
	loader CategoryLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedCategory
	// gen is bumped by Invalidate; a load started under an older
	// generation does not store its result.
	gen map[string]uint64
}

type cachedCategory struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionCatalog(loader CategoryLoader, ttl time.Duration) *QuestionCatalog {
	return &QuestionCatalog{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedCategory),
		gen:    make(map[string]uint64),
	}
}

func (c *QuestionCatalog) ListByCategory(ctx context.Context, category string) ([]domain.Question, error) {
	if qs, ok := c.lookup(category); ok {
		return qs, nil
	}

	result, err, _ := c.sf.Do(category, func() (interface{}, error) {
		if qs, ok := c.lookup(category); ok {
			return qs, nil
		}

		c.mu.RLock()
		gen := c.gen[category]
		c.mu.RUnlock()

		questions, err := c.loader.ListByCategory(ctx, category)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gen[category] == gen {
			c.cache[category] = cachedCategory{
				questions: questions,
				expiresAt: c.clock().Add(c.ttlWithJitterLocked()),
			}
		}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached list for category.
func (c *QuestionCatalog) Invalidate(_ context.Context, category string) error {
	c.mu.Lock()
	delete(c.cache, category)
	c.gen[category]++
	c.mu.Unlock()
	c.sf.Forget(category)
	return nil
}

func (c *QuestionCatalog) lookup(category string) ([]domain.Question, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[category]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return entry.questions, true
}

func (c *QuestionCatalog) ttlWithJitterLocked() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
