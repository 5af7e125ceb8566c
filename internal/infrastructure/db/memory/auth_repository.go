// Package memory keeps backend accounts in process memory. It backs the
// development server when no MongoDB URI is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/distribuidoracarol/panel/internal/core/domain"
)

type AuthRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*domain.User
}

func NewAuthRepository() *AuthRepository {
	return &AuthRepository{byID: make(map[int64]*domain.User)}
}

func clone(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (r *AuthRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	stored := clone(user)
	stored.ID = r.nextID
	r.byID[stored.ID] = stored
	return clone(stored), nil
}

func (r *AuthRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if u.Username == username {
			return clone(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *AuthRepository) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(u), nil
}

// List returns every account ordered by name.
func (r *AuthRepository) List(_ context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, clone(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *AuthRepository) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *AuthRepository) TouchLastAccess(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LastAccess = at
	return nil
}

// SetActive is used by tests and seeding to toggle an account.
func (r *AuthRepository) SetActive(id int64, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		u.Active = active
	}
}

func (r *AuthRepository) Ping(context.Context) error { return nil }
