package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"quiz-score-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	leaderboardKey      = "leaderboard:points"
	leaderboardNamesKey = "leaderboard:names"
	leaderboardLoaded   = "leaderboard:loaded"
	backfillSize        = 100
)

// UserRanker loads users ordered by points when the sorted set is empty.
type UserRanker interface {
	TopByPoints(ctx context.Context, limit int) ([]domain.User, error)
}

// Leaderboard keeps user totals in a sorted set. Scores are stored negated so an
// ascending ZRANGE yields points desc with ties ordered by member (user ID) asc.
type Leaderboard struct {
	client *redis.Client
	ranker UserRanker
	sf     singleflight.Group
}

type memberInfo struct {
	Username string `json:"username"`
	Level    int    `json:"level"`
}

func NewLeaderboard(client *redis.Client, ranker UserRanker) *Leaderboard {
	return &Leaderboard{client: client, ranker: ranker}
}

// recordScript never moves a member to fewer points than already stored.
var recordScript = redis.NewScript(`
local cur = redis.call('ZSCORE', KEYS[1], ARGV[2])
if cur and tonumber(cur) < tonumber(ARGV[1]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[2])
redis.call('HSET', KEYS[2], ARGV[2], ARGV[3])
return 1
`)

func (l *Leaderboard) Record(ctx context.Context, u domain.User) error {
	info, err := json.Marshal(memberInfo{Username: u.Username, Level: u.Level})
	if err != nil {
		return err
	}
	keys := []string{leaderboardKey, leaderboardNamesKey}
	return recordScript.Run(ctx, l.client, keys, -u.Points, u.ID, string(info)).Err()
}

func (l *Leaderboard) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		return []domain.LeaderboardEntry{}, nil
	}
	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	members, err := l.client.ZRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []domain.LeaderboardEntry{}, nil
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.Member.(string)
	}
	infos, err := l.client.HMGet(ctx, leaderboardNamesKey, ids...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LeaderboardEntry, len(members))
	for i, m := range members {
		var info memberInfo
		if raw, ok := infos[i].(string); ok {
			if err := json.Unmarshal([]byte(raw), &info); err != nil {
				return nil, fmt.Errorf("decode leaderboard member %s: %w", ids[i], err)
			}
		}
		entries[i] = domain.LeaderboardEntry{
			Rank:     i + 1,
			UserID:   ids[i],
			Username: info.Username,
			Points:   int(-m.Score),
			Level:    info.Level,
		}
	}
	return entries, nil
}

// ensureLoaded seeds the sorted set from the user store once per Redis
// dataset. A marker key tracks the backfill since Record may populate the set
// before the first read.
func (l *Leaderboard) ensureLoaded(ctx context.Context) error {
	if l.ranker == nil {
		return nil
	}
	loaded, err := l.loaded(ctx)
	if err != nil || loaded {
		return err
	}

	_, err, _ = l.sf.Do("backfill", func() (interface{}, error) {
		if loaded, err := l.loaded(ctx); err != nil || loaded {
			return nil, err
		}
		users, err := l.ranker.TopByPoints(ctx, backfillSize)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			if err := l.Record(ctx, u); err != nil {
				return nil, err
			}
		}
		return nil, l.client.Set(ctx, leaderboardLoaded, "1", 0).Err()
	})
	return err
}

func (l *Leaderboard) loaded(ctx context.Context) (bool, error) {
	n, err := l.client.Exists(ctx, leaderboardLoaded).Result()
	return n > 0, err
}
