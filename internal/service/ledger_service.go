// internal/service/ledger_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finledger/internal/domain"
	"finledger/internal/lock"
	"finledger/internal/metrics"
	"finledger/internal/repository"
	"finledger/internal/util"
	"finledger/pkg/db"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Pagination bounds for statement history.
const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// CreateStatementInput describes a deposit or a withdrawal.
type CreateStatementInput struct {
	UserID      uuid.UUID
	Type        domain.OperationType
	Amount      decimal.Decimal
	Description string
}

// CreateTransferInput describes a transfer from SenderID to ReceiverID.
type CreateTransferInput struct {
	SenderID    uuid.UUID
	ReceiverID  uuid.UUID
	Amount      decimal.Decimal
	Description string
}

// LedgerService defines the statement and balance use cases.
type LedgerService interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (*domain.Balance, error)
	CreateStatement(ctx context.Context, in CreateStatementInput) (*domain.Statement, error)
	CreateTransfer(ctx context.Context, in CreateTransferInput) (*domain.Statement, error)
	GetStatementOperation(ctx context.Context, userID, statementID uuid.UUID) (*domain.Statement, error)
	GetStatementHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Statement, int64, error)
}

// ledgerService implements the LedgerService interface.
type ledgerService struct {
	txBeginner    db.TxBeginner         // For starting transactions
	dbExecutor    repository.DBExecutor // For non-transactional reads
	userRepo      repository.UserRepository
	statementRepo repository.StatementRepository
	locker        lock.Locker
	logger        *zap.Logger
	metrics       *metrics.Ledger
}

// NewLedgerService creates a new instance of LedgerService. m may be nil.
func NewLedgerService(
	txBeginner db.TxBeginner,
	dbExecutor repository.DBExecutor,
	userRepo repository.UserRepository,
	statementRepo repository.StatementRepository,
	locker lock.Locker,
	logger *zap.Logger,
	m *metrics.Ledger,
) LedgerService {
	return &ledgerService{
		txBeginner:    txBeginner,
		dbExecutor:    dbExecutor,
		userRepo:      userRepo,
		statementRepo: statementRepo,
		locker:        locker,
		logger:        logger,
		metrics:       m,
	}
}

// GetBalance returns the user's statements and the balance derived from them.
func (s *ledgerService) GetBalance(ctx context.Context, userID uuid.UUID) (*domain.Balance, error) {
	started := time.Now()
	b, err := s.getBalance(ctx, userID)
	s.metrics.Observe("get_balance", started, err)
	return b, err
}

func (s *ledgerService) getBalance(ctx context.Context, userID uuid.UUID) (*domain.Balance, error) {
	const op = "get balance"
	if _, err := s.requireUser(ctx, s.dbExecutor, op, userID); err != nil {
		return nil, err
	}
	b, err := s.statementRepo.GetUserBalance(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to compute balance for user %s: %w", op, userID, err)
	}
	return b, nil
}

// CreateStatement records a deposit or a withdrawal.
func (s *ledgerService) CreateStatement(ctx context.Context, in CreateStatementInput) (*domain.Statement, error) {
	started := time.Now()
	st, err := s.createStatement(ctx, in)
	s.metrics.Observe(string(in.Type), started, err)
	return st, err
}

func (s *ledgerService) createStatement(ctx context.Context, in CreateStatementInput) (*domain.Statement, error) {
	op := "create " + string(in.Type)
	if in.Type != domain.OperationTypeDeposit && in.Type != domain.OperationTypeWithdraw {
		return nil, util.NewError("create statement", util.KindInvalidInput, fmt.Errorf("unsupported operation type %q", in.Type))
	}
	if err := validateAmount(op, in.Amount); err != nil {
		return nil, err
	}
	withdraw := in.Type == domain.OperationTypeWithdraw

	// A withdrawal holds the user's key across read-balance, check, insert.
	if withdraw {
		unlock, err := s.locker.Lock(ctx, in.UserID.String())
		if err != nil {
			return nil, fmt.Errorf("%s: failed to lock user %s: %w", op, in.UserID, err)
		}
		defer unlock()
	}

	txController, err := db.BeginTx(ctx, s.txBeginner)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer db.RollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("%s: transaction controller does not implement DBExecutor", op)
	}

	if withdraw {
		if err := s.lockUsers(ctx, txExecutor, op, in.UserID); err != nil {
			return nil, err
		}
		balance, err := s.statementRepo.GetUserBalance(ctx, txExecutor, in.UserID)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to compute balance for user %s: %w", op, in.UserID, err)
		}
		if balance.Balance.LessThan(in.Amount) {
			s.logger.Info("withdrawal rejected",
				zap.String("user_id", in.UserID.String()),
				zap.String("amount", in.Amount.String()),
				zap.String("balance", balance.Balance.String()))
			return nil, util.NewError(op, util.KindInsufficientFunds, nil)
		}
	} else if _, err := s.requireUser(ctx, txExecutor, op, in.UserID); err != nil {
		return nil, err
	}

	statement := domain.NewStatement(in.UserID, in.Type, in.Amount, in.Description)
	if err := s.statementRepo.CreateStatement(ctx, txExecutor, statement); err != nil {
		return nil, fmt.Errorf("%s: failed to create statement: %w", op, err)
	}

	if err := db.CommitTx(txController); err != nil {
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	s.logger.Info("statement created",
		zap.String("statement_id", statement.ID.String()),
		zap.String("user_id", in.UserID.String()),
		zap.String("type", string(in.Type)),
		zap.String("amount", in.Amount.String()))
	return statement, nil
}

// CreateTransfer moves funds between two users. It persists the receiver's credit
// and the sender's debit in one transaction and returns the credit.
func (s *ledgerService) CreateTransfer(ctx context.Context, in CreateTransferInput) (*domain.Statement, error) {
	started := time.Now()
	st, err := s.createTransfer(ctx, in)
	s.metrics.Observe("transfer", started, err)
	return st, err
}

func (s *ledgerService) createTransfer(ctx context.Context, in CreateTransferInput) (*domain.Statement, error) {
	const op = "create transfer"
	if err := validateAmount(op, in.Amount); err != nil {
		return nil, err
	}
	if in.ReceiverID == uuid.Nil || in.SenderID == uuid.Nil {
		return nil, util.NewError(op, util.KindUserNotFound, nil)
	}
	if in.SenderID == in.ReceiverID {
		return nil, util.NewError(op, util.KindInvalidReceiver, errors.New("cannot transfer to yourself"))
	}

	unlock, err := s.locker.Lock(ctx, in.SenderID.String(), in.ReceiverID.String())
	if err != nil {
		return nil, fmt.Errorf("%s: failed to lock users: %w", op, err)
	}
	defer unlock()

	txController, err := db.BeginTx(ctx, s.txBeginner)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer db.RollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("%s: transaction controller does not implement DBExecutor", op)
	}

	if err := s.lockUsers(ctx, txExecutor, op, in.SenderID, in.ReceiverID); err != nil {
		return nil, err
	}

	balance, err := s.statementRepo.GetUserBalance(ctx, txExecutor, in.SenderID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to compute balance for sender %s: %w", op, in.SenderID, err)
	}
	if balance.Balance.LessThan(in.Amount) {
		s.logger.Info("transfer rejected",
			zap.String("sender_id", in.SenderID.String()),
			zap.String("receiver_id", in.ReceiverID.String()),
			zap.String("amount", in.Amount.String()),
			zap.String("balance", balance.Balance.String()))
		return nil, util.NewError(op, util.KindInsufficientFunds, nil)
	}

	credit, debit := domain.NewTransferLegs(in.SenderID, in.ReceiverID, in.Amount, in.Description)
	if err := s.statementRepo.CreateStatement(ctx, txExecutor, credit); err != nil {
		return nil, fmt.Errorf("%s: failed to create credit statement: %w", op, err)
	}
	if err := s.statementRepo.CreateStatement(ctx, txExecutor, debit); err != nil {
		return nil, fmt.Errorf("%s: failed to create debit statement: %w", op, err)
	}

	if err := db.CommitTx(txController); err != nil {
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	s.logger.Info("transfer completed",
		zap.String("transfer_id", credit.TransferID.String()),
		zap.String("sender_id", in.SenderID.String()),
		zap.String("receiver_id", in.ReceiverID.String()),
		zap.String("amount", in.Amount.String()))
	return credit, nil
}

// GetStatementOperation returns one statement, only if userID owns it.
func (s *ledgerService) GetStatementOperation(ctx context.Context, userID, statementID uuid.UUID) (*domain.Statement, error) {
	started := time.Now()
	st, err := s.getStatementOperation(ctx, userID, statementID)
	s.metrics.Observe("get_statement", started, err)
	return st, err
}

func (s *ledgerService) getStatementOperation(ctx context.Context, userID, statementID uuid.UUID) (*domain.Statement, error) {
	const op = "get statement operation"
	if _, err := s.requireUser(ctx, s.dbExecutor, op, userID); err != nil {
		return nil, err
	}

	statement, err := s.statementRepo.GetStatementByID(ctx, s.dbExecutor, statementID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.NewError(op, util.KindStatementNotFound, nil)
		}
		return nil, fmt.Errorf("%s: failed to get statement %s: %w", op, statementID, err)
	}
	// Another user's statement is reported exactly like a missing one.
	if statement.UserID != userID {
		return nil, util.NewError(op, util.KindStatementNotFound, nil)
	}
	return statement, nil
}

// GetStatementHistory retrieves a paginated list of the user's statements.
func (s *ledgerService) GetStatementHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Statement, int64, error) {
	const op = "get statement history"
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	if _, err := s.requireUser(ctx, s.dbExecutor, op, userID); err != nil {
		return nil, 0, err
	}

	statements, total, err := s.statementRepo.GetStatementHistory(ctx, s.dbExecutor, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to retrieve statement history: %w", op, err)
	}
	return statements, total, nil
}

// requireUser resolves id in the user directory, translating absence into UserNotFound.
func (s *ledgerService) requireUser(ctx context.Context, q repository.DBExecutor, op string, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, q, id)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.NewError(op, util.KindUserNotFound, nil)
		}
		return nil, fmt.Errorf("%s: failed to get user %s: %w", op, id, err)
	}
	return user, nil
}

// lockUsers row-locks every id inside the transaction and fails with UserNotFound
// if any of them does not exist.
func (s *ledgerService) lockUsers(ctx context.Context, q repository.DBExecutor, op string, ids ...uuid.UUID) error {
	users, err := s.userRepo.LockUsersByID(ctx, q, ids...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	found := make(map[uuid.UUID]bool, len(users))
	for _, u := range users {
		found[u.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return util.NewError(op, util.KindUserNotFound, nil)
		}
	}
	return nil
}

// validateAmount rejects non-positive amounts and amounts finer than a cent.
func validateAmount(op string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return util.NewError(op, util.KindInvalidInput, errors.New("amount must be positive"))
	}
	if !amount.Equal(amount.Round(domain.AmountScale)) {
		return util.NewError(op, util.KindInvalidInput, fmt.Errorf("amount must have at most %d decimal places", domain.AmountScale))
	}
	return nil
}
