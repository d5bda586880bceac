// internal/repository/statement_repo.go
package repository

import (
	"context"

	"finledger/internal/domain"

	"github.com/google/uuid"
)

// StatementRepository defines the interface for the append-only statement ledger.
type StatementRepository interface {
	// CreateStatement appends a statement. Statements are never updated or deleted.
	CreateStatement(ctx context.Context, q DBExecutor, statement *domain.Statement) error
	// GetStatementByID returns util.ErrNotFound when no statement has that id.
	GetStatementByID(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.Statement, error)
	// GetStatementsByUserID returns the full history of a user, oldest first.
	GetStatementsByUserID(ctx context.Context, q DBExecutor, userID uuid.UUID) ([]domain.Statement, error)
	// GetStatementHistory returns one page of a user's statements, newest first, with the total count.
	GetStatementHistory(ctx context.Context, q DBExecutor, userID uuid.UUID, limit, offset int) ([]domain.Statement, int64, error)
	// GetUserBalance returns the user's statements and the balance folded from them.
	GetUserBalance(ctx context.Context, q DBExecutor, userID uuid.UUID) (*domain.Balance, error)
}
