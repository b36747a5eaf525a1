package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/google/uuid"
)

// UsersRepo is the in-memory backend used by tests and local dev.
// Email uniqueness is enforced under the same lock as the insert, which is
// what the real stores' unique index gives them.
type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
	}
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Email == u.Email {
			return user.User{}, user.ErrEmailTaken
		}
	}

	now := time.Now().UTC()

	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now

	r.items[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Email == email {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) List(_ context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0, len(r.items))

	for _, u := range r.items {
		out = append(out, u)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (r *UsersRepo) Update(_ context.Context, id string, patch user.Patch) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if patch.Email != nil && *patch.Email != u.Email {
		for _, existing := range r.items {
			if existing.Email == *patch.Email {
				return user.User{}, user.ErrEmailTaken
			}
		}
		u.Email = *patch.Email
	}

	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}

	u.UpdatedAt = time.Now().UTC()

	r.items[id] = u

	return u, nil
}

func (r *UsersRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.items[id]

	if !ok {
		return user.ErrNotFound
	}

	delete(r.items, id)

	return nil
}
