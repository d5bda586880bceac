// internal/repository/user_repo.go
package repository

import (
	"context"

	"finledger/internal/domain"

	"github.com/google/uuid"
)

// UserRepository defines the interface for the user directory.
type UserRepository interface {
	// CreateUser adds a new user. Returns util.ErrDuplicateEntry if the email is taken.
	CreateUser(ctx context.Context, q DBExecutor, user *domain.User) error
	// GetUserByID returns util.ErrNotFound when the user does not exist.
	GetUserByID(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.User, error)
	// GetUserByEmail returns util.ErrNotFound when the user does not exist.
	GetUserByEmail(ctx context.Context, q DBExecutor, email string) (*domain.User, error)
	// LockUsersByID locks the rows of the given users for the rest of the transaction q
	// and returns the ones that exist, ordered by id.
	LockUsersByID(ctx context.Context, q DBExecutor, ids ...uuid.UUID) ([]domain.User, error)
}
