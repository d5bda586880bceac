// internal/repository/memory/statement_mem.go
package memory

import (
	"context"
	"fmt"
	"sort"

	"finledger/internal/domain"
	"finledger/internal/repository"
	"finledger/internal/util"

	"github.com/google/uuid"
)

// StatementRepository implements repository.StatementRepository over a Store.
type StatementRepository struct {
	store *Store
}

// NewStatementRepository creates a new StatementRepository.
func NewStatementRepository(store *Store) repository.StatementRepository {
	return &StatementRepository{store: store}
}

// CreateStatement stages the statement when q is a *Tx, otherwise writes it directly.
func (r *StatementRepository) CreateStatement(ctx context.Context, q repository.DBExecutor, st *domain.Statement) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to create statement: %w", err)
	}
	if tx, ok := q.(*Tx); ok {
		if err := tx.stage(*st); err != nil {
			return fmt.Errorf("failed to create statement: %w", err)
		}
		return nil
	}
	r.store.appendStatements(*st)
	return nil
}

// GetStatementByID retrieves a statement by its ID.
func (r *StatementRepository) GetStatementByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Statement, error) {
	for _, st := range r.visible(q) {
		if st.ID == id {
			found := st
			return &found, nil
		}
	}
	return nil, util.ErrNotFound
}

// GetStatementsByUserID retrieves every statement owned by the user, oldest first.
func (r *StatementRepository) GetStatementsByUserID(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) ([]domain.Statement, error) {
	statements := []domain.Statement{}
	for _, st := range r.visible(q) {
		if st.UserID == userID {
			statements = append(statements, st)
		}
	}
	return statements, nil
}

// GetStatementHistory retrieves one page of statements, newest first.
func (r *StatementRepository) GetStatementHistory(ctx context.Context, q repository.DBExecutor, userID uuid.UUID, limit, offset int) ([]domain.Statement, int64, error) {
	all, err := r.GetStatementsByUserID(ctx, q, userID)
	if err != nil {
		return nil, 0, err
	}
	// Reverse first so equal timestamps keep newest-inserted first.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	if offset >= len(all) {
		return []domain.Statement{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// GetUserBalance folds the user's visible history into a balance.
func (r *StatementRepository) GetUserBalance(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) (*domain.Balance, error) {
	statements, err := r.GetStatementsByUserID(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return domain.NewBalance(statements), nil
}

// visible returns committed statements in insertion order, followed by the
// statements staged in q when q is a transaction.
func (r *StatementRepository) visible(q repository.DBExecutor) []domain.Statement {
	r.store.mu.RLock()
	out := make([]domain.Statement, len(r.store.statements))
	copy(out, r.store.statements)
	r.store.mu.RUnlock()

	if tx, ok := q.(*Tx); ok {
		out = append(out, tx.staged()...)
	}
	return out
}
