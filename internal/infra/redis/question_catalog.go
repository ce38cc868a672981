package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"quiz-score-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CategoryLoader fetches active questions of a category from a backing store.
type CategoryLoader interface {
	ListByCategory(ctx context.Context, category string) ([]domain.Question, error)
}

// QuestionCatalog caches category question lists in Redis and falls back to a loader on cache miss.
// Lists are stored as JSON: SET catalog:{category} [...]
// Invalidate bumps catalog:gen:{category}; a load only stores its result
// when the generation it started under is still current.
type QuestionCatalog struct {
	client *redis.Client
	loader CategoryLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionCatalog(client *redis.Client, loader CategoryLoader, ttl time.Duration) *QuestionCatalog {
	return &QuestionCatalog{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCatalog) ListByCategory(ctx context.Context, category string) ([]domain.Question, error) {
	if qs, ok := c.cached(ctx, category); ok {
		return qs, nil
	}

	result, err, _ := c.sf.Do(category, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if qs, ok := c.cached(ctx, category); ok {
			return qs, nil
		}

		gen, err := c.client.Get(ctx, c.genKey(category)).Result()
		if errors.Is(err, redis.Nil) {
			gen = "0"
		} else if err != nil {
			gen = ""
		}

		questions, err := c.loader.ListByCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(questions); err == nil && gen != "" {
			keys := []string{c.key(category), c.genKey(category)}
			_ = storeScript.Run(ctx, c.client, keys, gen, string(data), c.ttlWithJitter().Milliseconds()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate deletes the cached list for category.
func (c *QuestionCatalog) Invalidate(ctx context.Context, category string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.key(category))
		pipe.Incr(ctx, c.genKey(category))
		return nil
	})
	c.sf.Forget(category)
	return err
}

// storeScript sets KEYS[1] only while KEYS[2] still holds generation ARGV[1].
var storeScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

func (c *QuestionCatalog) cached(ctx context.Context, category string) ([]domain.Question, bool) {
	data, err := c.client.Get(ctx, c.key(category)).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func (c *QuestionCatalog) key(category string) string {
	return "catalog:" + category
}

func (c *QuestionCatalog) genKey(category string) string {
	return "catalog:gen:" + category
}

func (c *QuestionCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
