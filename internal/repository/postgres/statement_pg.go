// internal/repository/postgres/statement_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finledger/internal/domain"
	"finledger/internal/repository"
	"finledger/internal/util"

	"github.com/google/uuid"
)

const statementColumns = `id, user_id, sender_id, transfer_id, description, amount, type, created_at, updated_at`

// StatementRepository implements repository.StatementRepository for PostgreSQL.
type StatementRepository struct{}

// NewStatementRepository creates a new StatementRepository.
func NewStatementRepository() repository.StatementRepository {
	return &StatementRepository{}
}

// CreateStatement inserts a new statement using the provided DBExecutor.
func (r *StatementRepository) CreateStatement(ctx context.Context, q repository.DBExecutor, st *domain.Statement) error {
	query := `INSERT INTO statements (` + statementColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := q.ExecContext(ctx, query,
		st.ID,
		st.UserID,
		st.SenderID,
		st.TransferID,
		st.Description,
		st.Amount,
		st.Type,
		st.CreatedAt,
		st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create statement: %w", err)
	}
	return nil
}

// GetStatementByID retrieves a statement by its ID.
func (r *StatementRepository) GetStatementByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Statement, error) {
	var st domain.Statement
	query := `SELECT ` + statementColumns + ` FROM statements WHERE id = $1`
	if err := q.GetContext(ctx, &st, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get statement by ID %s: %w", id, err)
	}
	return &st, nil
}

// GetStatementsByUserID retrieves every statement owned by the user, oldest first.
func (r *StatementRepository) GetStatementsByUserID(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) ([]domain.Statement, error) {
	statements := []domain.Statement{}
	query := `SELECT ` + statementColumns + ` FROM statements WHERE user_id = $1 ORDER BY created_at, id`
	if err := q.SelectContext(ctx, &statements, query, userID); err != nil {
		return nil, fmt.Errorf("failed to fetch statements for user %s: %w", userID, err)
	}
	return statements, nil
}

// GetStatementHistory retrieves a paginated list of statements for a user.
// It performs two queries: one for the data and one for the total count.
func (r *StatementRepository) GetStatementHistory(ctx context.Context, q repository.DBExecutor, userID uuid.UUID, limit, offset int) ([]domain.Statement, int64, error) {
	statements := []domain.Statement{}

	query := `
		SELECT ` + statementColumns + `
		FROM statements
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	if err := q.SelectContext(ctx, &statements, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch statement history for user %s: %w", userID, err)
	}

	var totalCount int64
	countQuery := `SELECT COUNT(*) FROM statements WHERE user_id = $1`
	if err := q.GetContext(ctx, &totalCount, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count statements for user %s: %w", userID, err)
	}

	return statements, totalCount, nil
}

// GetUserBalance loads the user's full history and folds it into a balance.
func (r *StatementRepository) GetUserBalance(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) (*domain.Balance, error) {
	statements, err := r.GetStatementsByUserID(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return domain.NewBalance(statements), nil
}
