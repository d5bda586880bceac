// internal/repository/memory/store.go

// Package memory is a thread-safe in-memory backend for the user directory and the
// statement ledger. Writes made through a Tx are staged and become visible to other
// readers only on Commit.
package memory

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"finledger/internal/domain"
	"finledger/pkg/db"
)

var errSQLUnsupported = errors.New("memory: SQL execution is not supported")

// noSQL satisfies repository.DBExecutor for values that never run SQL.
type noSQL struct{}

func (noSQL) GetContext(context.Context, interface{}, string, ...interface{}) error {
	return errSQLUnsupported
}

func (noSQL) SelectContext(context.Context, interface{}, string, ...interface{}) error {
	return errSQLUnsupported
}

func (noSQL) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errSQLUnsupported
}

// Store holds committed state. It doubles as the non-transactional executor.
type Store struct {
	noSQL

	mu         sync.RWMutex
	users      map[string]*domain.User
	emailIndex map[string]string // email -> user id
	statements []domain.Statement
	byID       map[string]int // statement id -> index into statements
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users:      make(map[string]*domain.User),
		emailIndex: make(map[string]string),
		byID:       make(map[string]int),
	}
}

// BeginTx implements db.TxBeginner.
func (s *Store) BeginTx(ctx context.Context, _ *sql.TxOptions) (db.TxController, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{store: s}, nil
}

// StatementCount returns the number of committed statements.
func (s *Store) StatementCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.statements)
}

func (s *Store) appendStatements(sts ...domain.Statement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range sts {
		s.byID[st.ID.String()] = len(s.statements)
		s.statements = append(s.statements, st)
	}
}

// Tx stages statement inserts until Commit.
type Tx struct {
	noSQL

	store   *Store
	mu      sync.Mutex
	pending []domain.Statement
	done    bool
}

// Commit publishes the staged statements atomically.
func (t *Tx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.store.appendStatements(t.pending...)
	t.pending = nil
	return nil
}

// Rollback discards the staged statements.
func (t *Tx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.pending = nil
	return nil
}

func (t *Tx) stage(st domain.Statement) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return sql.ErrTxDone
	}
	t.pending = append(t.pending, st)
	return nil
}

func (t *Tx) staged() []domain.Statement {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Statement, len(t.pending))
	copy(out, t.pending)
	return out
}
