package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quiz-score-service/internal/domain"
)

// UserRepository keeps users in a map. ApplyScore runs under the write lock,
// so concurrent submissions never lose an update.
type UserRepository struct {
	now func() time.Time

	mu      sync.RWMutex
	users   map[string]domain.User
	byEmail map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		now:     time.Now,
		users:   make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) CreateUser(_ context.Context, u domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return domain.ErrEmailTaken
	}
	r.users[u.ID] = cloneUser(u)
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *UserRepository) GetUser(_ context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return cloneUser(r.users[id]), nil
}

func (r *UserRepository) ApplyScore(_ context.Context, id string, delta domain.UserDelta) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	u = domain.ApplyDelta(u, delta)
	u.UpdatedAt = r.now().UTC()
	r.users[id] = u
	return cloneUser(u), nil
}

func (r *UserRepository) TopByPoints(_ context.Context, limit int) ([]domain.User, error) {
	r.mu.RLock()
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneUser(u domain.User) domain.User {
	u.Badges = append([]string{}, u.Badges...)
	return u
}
