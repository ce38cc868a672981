package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"quiz-score-service/internal/domain"

	"go.uber.org/zap"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// ClampLimit applies the default and maximum leaderboard sizes.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		return MaxLeaderboardLimit
	}
	return limit
}

// RankUsers orders users by points desc, breaking ties by user ID, and
// assigns 1-based ranks by position.
func RankUsers(users []domain.User) []domain.LeaderboardEntry {
	sorted := append([]domain.User(nil), users...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Points != sorted[j].Points {
			return sorted[i].Points > sorted[j].Points
		}
		return sorted[i].ID < sorted[j].ID
	})
	entries := make([]domain.LeaderboardEntry, len(sorted))
	for i, u := range sorted {
		entries[i] = domain.LeaderboardEntry{
			Rank:     i + 1,
			UserID:   u.ID,
			Username: u.Username,
			Points:   u.Points,
			Level:    u.Level,
		}
	}
	return entries
}

// RepositoryLeaderboard ranks straight from the user repository.
type RepositoryLeaderboard struct {
	users UserRepository
}

func NewRepositoryLeaderboard(users UserRepository) *RepositoryLeaderboard {
	return &RepositoryLeaderboard{users: users}
}

// Record is a no-op: the repository already holds the new totals.
func (l *RepositoryLeaderboard) Record(context.Context, domain.User) error { return nil }

func (l *RepositoryLeaderboard) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	users, err := l.users.TopByPoints(ctx, limit)
	if err != nil {
		return nil, err
	}
	return RankUsers(users), nil
}

// LeaderboardService answers ranking queries and fans snapshots out to live subscribers.
type LeaderboardService struct {
	store    LeaderboardStore
	feedSize int
	now      func() time.Time
	log      *zap.Logger

	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardService(store LeaderboardStore, feedSize int, log *zap.Logger) *LeaderboardService {
	if log == nil {
		log = zap.NewNop()
	}
	return &LeaderboardService{
		store:       store,
		feedSize:    ClampLimit(feedSize),
		now:         time.Now,
		log:         log,
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Top returns the ranked top users.
func (s *LeaderboardService) Top(ctx context.Context, limit int) (domain.Leaderboard, error) {
	entries, err := s.store.Top(ctx, ClampLimit(limit))
	if err != nil {
		return domain.Leaderboard{}, err
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: s.now().UTC()}, nil
}

// Record stores the user's new total and pushes a fresh snapshot to subscribers.
func (s *LeaderboardService) Record(ctx context.Context, u domain.User) error {
	if err := s.store.Record(ctx, u); err != nil {
		return err
	}
	s.broadcast(ctx)
	return nil
}

// Subscribe returns a channel of leaderboard snapshots, starting with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *LeaderboardService) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	initial, err := s.Top(ctx, s.feedSize)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan domain.Leaderboard, 8)
	ch <- initial

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

func (s *LeaderboardService) broadcast(ctx context.Context) {
	s.mu.Lock()
	empty := len(s.subscribers) == 0
	s.mu.Unlock()
	if empty {
		return
	}

	lb, err := s.Top(ctx, s.feedSize)
	if err != nil {
		s.log.Warn("leaderboard snapshot failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- lb:
		default:
			// Slow subscriber: drop the stale snapshot it has not read yet.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
