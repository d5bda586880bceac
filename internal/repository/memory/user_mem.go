// internal/repository/memory/user_mem.go
package memory

import (
	"bytes"
	"context"
	"sort"

	"finledger/internal/domain"
	"finledger/internal/repository"
	"finledger/internal/util"

	"github.com/google/uuid"
)

// UserRepository implements repository.UserRepository over a Store.
// Users are written immediately; only statements are transactional.
type UserRepository struct {
	store *Store
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(store *Store) repository.UserRepository {
	return &UserRepository{store: store}
}

// CreateUser adds a new user, enforcing email uniqueness.
func (r *UserRepository) CreateUser(ctx context.Context, _ repository.DBExecutor, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.emailIndex[user.Email]; exists {
		return util.NewError("create user", util.KindDuplicateEntry, nil)
	}
	u := *user
	r.store.users[user.ID.String()] = &u
	r.store.emailIndex[user.Email] = user.ID.String()
	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, _ repository.DBExecutor, id uuid.UUID) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.users[id.String()]
	if !ok {
		return nil, util.ErrNotFound
	}
	found := *u
	return &found, nil
}

// GetUserByEmail retrieves a user by their email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, _ repository.DBExecutor, email string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	id, ok := r.store.emailIndex[email]
	if !ok {
		return nil, util.ErrNotFound
	}
	found := *r.store.users[id]
	return &found, nil
}

// LockUsersByID returns the existing users among ids, ordered by id. The memory
// backend has no row locks; callers serialize through a lock.Locker.
func (r *UserRepository) LockUsersByID(ctx context.Context, _ repository.DBExecutor, ids ...uuid.UUID) ([]domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	users := []domain.User{}
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if u, ok := r.store.users[id.String()]; ok {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return bytes.Compare(users[i].ID[:], users[j].ID[:]) < 0
	})
	return users, nil
}
