// internal/domain/balance.go
package domain

import "github.com/shopspring/decimal"

// Balance is a user's statement history together with the balance derived from it.
type Balance struct {
	Statements []Statement
	Balance    decimal.Decimal
}

// NewBalance folds statements into a Balance. Deposits and transfer credits add,
// withdrawals subtract. Nothing is cached: callers recompute from full history.
func NewBalance(statements []Statement) *Balance {
	total := decimal.Zero
	for _, st := range statements {
		total = total.Add(st.SignedAmount())
	}
	if statements == nil {
		statements = []Statement{}
	}
	return &Balance{Statements: statements, Balance: total}
}
