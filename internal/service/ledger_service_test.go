// internal/service/ledger_service_test.go
package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"finledger/internal/domain"
	"finledger/internal/lock"
	"finledger/internal/repository"
	"finledger/internal/repository/memory"
	"finledger/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type ledgerFixture struct {
	svc   LedgerService
	store *memory.Store
	users repository.UserRepository
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	statements := memory.NewStatementRepository(store)
	return &ledgerFixture{
		svc:   NewLedgerService(store, store, users, statements, lock.NewLocal(), zap.NewNop(), nil),
		store: store,
		users: users,
	}
}

func (f *ledgerFixture) addUser(t *testing.T, email string) uuid.UUID {
	t.Helper()
	u := domain.NewUser("User "+email, email, "hash")
	require.NoError(t, f.users.CreateUser(context.Background(), f.store, u))
	return u.ID
}

func (f *ledgerFixture) deposit(t *testing.T, userID uuid.UUID, amount string) {
	t.Helper()
	_, err := f.svc.CreateStatement(context.Background(), CreateStatementInput{
		UserID: userID,
		Type:   domain.OperationTypeDeposit,
		Amount: dec(amount),
	})
	require.NoError(t, err)
}

func (f *ledgerFixture) balance(t *testing.T, userID uuid.UUID) decimal.Decimal {
	t.Helper()
	b, err := f.svc.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	return b.Balance
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestLedgerScenario(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	a := f.addUser(t, "a@mail.com")
	b := f.addUser(t, "b@mail.com")

	f.deposit(t, a, "100")
	assertAmount(t, "100", f.balance(t, a))

	withdrawal, err := f.svc.CreateStatement(ctx, CreateStatementInput{
		UserID: a, Type: domain.OperationTypeWithdraw, Amount: dec("50"), Description: "rent",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OperationTypeWithdraw, withdrawal.Type)
	assert.Equal(t, "rent", withdrawal.Description)
	assertAmount(t, "50", f.balance(t, a))

	credit, err := f.svc.CreateTransfer(ctx, CreateTransferInput{
		SenderID: a, ReceiverID: b, Amount: dec("50"), Description: "split",
	})
	require.NoError(t, err)
	assert.Equal(t, b, credit.UserID)
	assert.Equal(t, domain.OperationTypeTransfer, credit.Type)
	require.NotNil(t, credit.SenderID)
	assert.Equal(t, a, *credit.SenderID)
	require.NotNil(t, credit.TransferID)

	assertAmount(t, "0", f.balance(t, a))
	assertAmount(t, "50", f.balance(t, b))

	aBalance, err := f.svc.GetBalance(ctx, a)
	require.NoError(t, err)
	require.Len(t, aBalance.Statements, 3)
	debit := aBalance.Statements[2]
	require.NotNil(t, debit.TransferID)
	assert.Equal(t, *credit.TransferID, *debit.TransferID)

	bBalance, err := f.svc.GetBalance(ctx, b)
	require.NoError(t, err)
	require.Len(t, bBalance.Statements, 1)
	assert.Equal(t, credit.ID, bBalance.Statements[0].ID)
}

func TestWithdrawBoundary(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	a := f.addUser(t, "a@mail.com")
	f.deposit(t, a, "10.50")

	t.Run("MoreThanBalance", func(t *testing.T) {
		_, err := f.svc.CreateStatement(ctx, CreateStatementInput{UserID: a, Type: domain.OperationTypeWithdraw, Amount: dec("10.51")})
		assert.ErrorIs(t, err, util.ErrInsufficientFunds)
		assert.Equal(t, 1, f.store.StatementCount())
	})

	t.Run("ExactlyBalance", func(t *testing.T) {
		_, err := f.svc.CreateStatement(ctx, CreateStatementInput{UserID: a, Type: domain.OperationTypeWithdraw, Amount: dec("10.50")})
		require.NoError(t, err)
		assertAmount(t, "0", f.balance(t, a))
	})

	t.Run("EmptyBalance", func(t *testing.T) {
		_, err := f.svc.CreateStatement(ctx, CreateStatementInput{UserID: a, Type: domain.OperationTypeWithdraw, Amount: dec("0.01")})
		assert.ErrorIs(t, err, util.ErrInsufficientFunds)
		assert.Equal(t, 2, f.store.StatementCount())
	})
}

func TestCreateStatementRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	a := f.addUser(t, "a@mail.com")

	cases := map[string]CreateStatementInput{
		"ZeroAmount":     {UserID: a, Type: domain.OperationTypeDeposit, Amount: dec("0")},
		"NegativeAmount": {UserID: a, Type: domain.OperationTypeDeposit, Amount: dec("-5")},
		"SubCentAmount":  {UserID: a, Type: domain.OperationTypeWithdraw, Amount: dec("0.001")},
		"TransferType":   {UserID: a, Type: domain.OperationTypeTransfer, Amount: dec("5")},
		"UnknownType":    {UserID: a, Type: domain.OperationType("refund"), Amount: dec("5")},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			st, err := f.svc.CreateStatement(ctx, in)
			assert.ErrorIs(t, err, util.ErrInvalidInput)
			assert.Nil(t, st)
		})
	}
	assert.Equal(t, 0, f.store.StatementCount())
}

func TestCreateStatementUnknownUser(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	for _, opType := range []domain.OperationType{domain.OperationTypeDeposit, domain.OperationTypeWithdraw} {
		_, err := f.svc.CreateStatement(ctx, CreateStatementInput{UserID: uuid.New(), Type: opType, Amount: dec("1")})
		assert.ErrorIs(t, err, util.ErrUserNotFound, string(opType))
	}
	assert.Equal(t, 0, f.store.StatementCount())
}

func TestCreateTransferFailures(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	a := f.addUser(t, "a@mail.com")
	b := f.addUser(t, "b@mail.com")
	f.deposit(t, a, "20")

	cases := []struct {
		name string
		in   CreateTransferInput
		want error
	}{
		{"UnknownReceiver", CreateTransferInput{SenderID: a, ReceiverID: uuid.New(), Amount: dec("5")}, util.ErrUserNotFound},
		{"BlankReceiver", CreateTransferInput{SenderID: a, ReceiverID: uuid.Nil, Amount: dec("5")}, util.ErrUserNotFound},
		{"UnknownSender", CreateTransferInput{SenderID: uuid.New(), ReceiverID: b, Amount: dec("5")}, util.ErrUserNotFound},
		{"SelfTransfer", CreateTransferInput{SenderID: a, ReceiverID: a, Amount: dec("5")}, util.ErrInvalidReceiver},
		{"InsufficientFunds", CreateTransferInput{SenderID: a, ReceiverID: b, Amount: dec("20.01")}, util.ErrInsufficientFunds},
		{"ZeroAmount", CreateTransferInput{SenderID: a, ReceiverID: b, Amount: dec("0")}, util.ErrInvalidInput},
		{"SubCentAmount", CreateTransferInput{SenderID: a, ReceiverID: b, Amount: dec("1.005")}, util.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			credit, err := f.svc.CreateTransfer(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
			assert.Nil(t, credit)
			assert.Equal(t, 1, f.store.StatementCount())
		})
	}
	assertAmount(t, "20", f.balance(t, a))
	assertAmount(t, "0", f.balance(t, b))
}

func TestGetStatementOperation(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	a := f.addUser(t, "a@mail.com")
	b := f.addUser(t, "b@mail.com")

	st, err := f.svc.CreateStatement(ctx, CreateStatementInput{UserID: a, Type: domain.OperationTypeDeposit, Amount: dec("7.25")})
	require.NoError(t, err)

	t.Run("Owner", func(t *testing.T) {
		got, err := f.svc.GetStatementOperation(ctx, a, st.ID)
		require.NoError(t, err)
		assert.Equal(t, st.ID, got.ID)
		assertAmount(t, "7.25", got.Amount)
	})

	t.Run("OtherUser", func(t *testing.T) {
		got, err := f.svc.GetStatementOperation(ctx, b, st.ID)
		assert.ErrorIs(t, err, util.ErrStatementNotFound)
		assert.Nil(t, got)
	})

	t.Run("MissingStatement", func(t *testing.T) {
		_, err := f.svc.GetStatementOperation(ctx, a, uuid.New())
		assert.ErrorIs(t, err, util.ErrStatementNotFound)
	})

	t.Run("MissingUser", func(t *testing.T) {
		_, err := f.svc.GetStatementOperation(ctx, uuid.New(), st.ID)
		assert.ErrorIs(t, err, util.ErrUserNotFound)
	})
}

func TestGetBalanceUnknownUser(t *testing.T) {
	f := newLedgerFixture(t)
	_, err := f.svc.GetBalance(context.Background(), uuid.New())
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestGetStatementHistory(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	a := f.addUser(t, "a@mail.com")
	for i := 1; i <= 15; i++ {
		f.deposit(t, a, decimal.NewFromInt(int64(i)).String())
	}

	page, total, err := f.svc.GetStatementHistory(ctx, a, 0, -3)
	require.NoError(t, err)
	assert.Equal(t, int64(15), total)
	require.Len(t, page, DefaultHistoryLimit)
	assertAmount(t, "15", page[0].Amount)

	all, _, err := f.svc.GetStatementHistory(ctx, a, 1000, 0)
	require.NoError(t, err)
	assert.Len(t, all, 15)

	tail, _, err := f.svc.GetStatementHistory(ctx, a, 10, 10)
	require.NoError(t, err)
	require.Len(t, tail, 5)
	assertAmount(t, "1", tail[4].Amount)

	_, _, err = f.svc.GetStatementHistory(ctx, uuid.New(), 10, 0)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	a := f.addUser(t, "a@mail.com")
	f.deposit(t, a, "100")

	const workers = 10
	var ok, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateStatement(ctx, CreateStatementInput{UserID: a, Type: domain.OperationTypeWithdraw, Amount: dec("25")})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, util.ErrInsufficientFunds):
				rejected.Add(1)
			default:
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(4), ok.Load())
	assert.Equal(t, int32(workers-4), rejected.Load())
	assertAmount(t, "0", f.balance(t, a))
}

func TestConcurrentOpposingTransfers(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	a := f.addUser(t, "a@mail.com")
	b := f.addUser(t, "b@mail.com")
	f.deposit(t, a, "100")
	f.deposit(t, b, "100")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		sender, receiver := a, b
		if i%2 == 1 {
			sender, receiver = b, a
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateTransfer(ctx, CreateTransferInput{SenderID: sender, ReceiverID: receiver, Amount: dec("10")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assertAmount(t, "100", f.balance(t, a))
	assertAmount(t, "100", f.balance(t, b))
	assert.Equal(t, 2+40, f.store.StatementCount())
}

func TestCreateTransferRollsBackOnDebitFailure(t *testing.T) {
	ctx := context.Background()
	sender, receiver := uuid.New(), uuid.New()

	mockBeginner := new(MockTxBeginner)
	mockTx := new(MockTxController)
	mockUserRepo := new(MockUserRepository)
	mockStatementRepo := new(MockStatementRepository)

	svc := NewLedgerService(mockBeginner, MockDBExecutor{}, mockUserRepo, mockStatementRepo, lock.NewLocal(), zap.NewNop(), nil)

	mockBeginner.On("BeginTx", ctx, mock.Anything).Return(mockTx, nil).Once()
	mockUserRepo.On("LockUsersByID", ctx, mockTx, []uuid.UUID{sender, receiver}).
		Return([]domain.User{{ID: sender}, {ID: receiver}}, nil).Once()
	mockStatementRepo.On("GetUserBalance", ctx, mockTx, sender).
		Return(&domain.Balance{Balance: dec("100")}, nil).Once()
	mockStatementRepo.On("CreateStatement", ctx, mockTx, mock.MatchedBy(func(st *domain.Statement) bool {
		return st.Type == domain.OperationTypeTransfer && st.UserID == receiver
	})).Return(nil).Once()
	mockStatementRepo.On("CreateStatement", ctx, mockTx, mock.MatchedBy(func(st *domain.Statement) bool {
		return st.Type == domain.OperationTypeWithdraw && st.UserID == sender
	})).Return(errors.New("connection reset")).Once()
	mockTx.On("Rollback").Return(nil).Once()

	credit, err := svc.CreateTransfer(ctx, CreateTransferInput{SenderID: sender, ReceiverID: receiver, Amount: dec("40")})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "debit")
	assert.Nil(t, credit)
	mockTx.AssertNotCalled(t, "Commit")
	mock.AssertExpectationsForObjects(t, mockBeginner, mockTx, mockUserRepo, mockStatementRepo)
}

func TestCreateStatementBeginFailure(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	mockBeginner := new(MockTxBeginner)
	mockUserRepo := new(MockUserRepository)
	mockStatementRepo := new(MockStatementRepository)

	svc := NewLedgerService(mockBeginner, MockDBExecutor{}, mockUserRepo, mockStatementRepo, lock.NewLocal(), zap.NewNop(), nil)

	mockBeginner.On("BeginTx", ctx, mock.Anything).Return(nil, errors.New("pool exhausted")).Once()

	st, err := svc.CreateStatement(ctx, CreateStatementInput{UserID: userID, Type: domain.OperationTypeDeposit, Amount: dec("1")})

	assert.ErrorContains(t, err, "pool exhausted")
	assert.Nil(t, st)
	mockStatementRepo.AssertNotCalled(t, "CreateStatement", mock.Anything, mock.Anything, mock.Anything)
	mock.AssertExpectationsForObjects(t, mockBeginner, mockUserRepo, mockStatementRepo)
}

func TestCreateStatementCommitFailure(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	mockBeginner := new(MockTxBeginner)
	mockTx := new(MockTxController)
	mockUserRepo := new(MockUserRepository)
	mockStatementRepo := new(MockStatementRepository)

	svc := NewLedgerService(mockBeginner, MockDBExecutor{}, mockUserRepo, mockStatementRepo, lock.NewLocal(), zap.NewNop(), nil)

	mockBeginner.On("BeginTx", ctx, mock.Anything).Return(mockTx, nil).Once()
	mockUserRepo.On("GetUserByID", ctx, mockTx, userID).Return(&domain.User{ID: userID}, nil).Once()
	mockStatementRepo.On("CreateStatement", ctx, mockTx, mock.AnythingOfType("*domain.Statement")).Return(nil).Once()
	mockTx.On("Commit").Return(errors.New("serialization failure")).Once()
	mockTx.On("Rollback").Return(nil).Once()

	st, err := svc.CreateStatement(ctx, CreateStatementInput{UserID: userID, Type: domain.OperationTypeDeposit, Amount: dec("1")})

	assert.ErrorContains(t, err, "failed to commit transaction")
	assert.Nil(t, st)
	mock.AssertExpectationsForObjects(t, mockBeginner, mockTx, mockUserRepo, mockStatementRepo)
}
