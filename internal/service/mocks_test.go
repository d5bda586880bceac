// internal/service/mocks_test.go
package service

import (
	"context"
	"database/sql"
	"errors"

	"finledger/internal/domain"
	"finledger/internal/repository"
	"finledger/pkg/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

var errNoSQL = errors.New("mock executor runs no SQL")

// MockDBExecutor is a mock implementation of repository.DBExecutor.
// Repositories are mocked too, so nothing should reach it.
type MockDBExecutor struct{}

func (MockDBExecutor) GetContext(context.Context, interface{}, string, ...interface{}) error {
	return errNoSQL
}

func (MockDBExecutor) SelectContext(context.Context, interface{}, string, ...interface{}) error {
	return errNoSQL
}

func (MockDBExecutor) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}

// MockTxController is a mock implementation of db.TxController.
// It embeds MockDBExecutor so the service can use it as a repository.DBExecutor.
type MockTxController struct {
	mock.Mock
	MockDBExecutor
}

func (m *MockTxController) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTxController) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockTxBeginner is a mock implementation of db.TxBeginner.
type MockTxBeginner struct {
	mock.Mock
}

func (m *MockTxBeginner) BeginTx(ctx context.Context, opts *sql.TxOptions) (db.TxController, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(db.TxController), args.Error(1)
}

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	args := m.Called(ctx, q, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, q repository.DBExecutor, email string) (*domain.User, error) {
	args := m.Called(ctx, q, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) LockUsersByID(ctx context.Context, q repository.DBExecutor, ids ...uuid.UUID) ([]domain.User, error) {
	args := m.Called(ctx, q, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

// MockStatementRepository is a mock implementation of repository.StatementRepository.
type MockStatementRepository struct {
	mock.Mock
}

func (m *MockStatementRepository) CreateStatement(ctx context.Context, q repository.DBExecutor, statement *domain.Statement) error {
	args := m.Called(ctx, q, statement)
	return args.Error(0)
}

func (m *MockStatementRepository) GetStatementByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Statement, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statement), args.Error(1)
}

func (m *MockStatementRepository) GetStatementsByUserID(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) ([]domain.Statement, error) {
	args := m.Called(ctx, q, userID)
	return args.Get(0).([]domain.Statement), args.Error(1)
}

func (m *MockStatementRepository) GetStatementHistory(ctx context.Context, q repository.DBExecutor, userID uuid.UUID, limit, offset int) ([]domain.Statement, int64, error) {
	args := m.Called(ctx, q, userID, limit, offset)
	return args.Get(0).([]domain.Statement), args.Get(1).(int64), args.Error(2)
}

func (m *MockStatementRepository) GetUserBalance(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) (*domain.Balance, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}
