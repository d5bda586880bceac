// internal/domain/statement.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// OperationType defines the type of a statement.
type OperationType string

const (
	OperationTypeDeposit  OperationType = "deposit"
	OperationTypeWithdraw OperationType = "withdraw"
	OperationTypeTransfer OperationType = "transfer" // credit leg of a transfer, owned by the receiver
)

// AmountScale is the number of fractional digits an amount may carry.
const AmountScale = 2

// Valid reports whether t is a known operation type.
func (t OperationType) Valid() bool {
	switch t {
	case OperationTypeDeposit, OperationTypeWithdraw, OperationTypeTransfer:
		return true
	}
	return false
}

// IsCredit reports whether statements of this type add to the owner's balance.
func (t OperationType) IsCredit() bool {
	return t == OperationTypeDeposit || t == OperationTypeTransfer
}

// Statement is a single immutable ledger entry.
type Statement struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	UserID      uuid.UUID       `db:"user_id" json:"user_id"`                   // Owner of the entry
	SenderID    *uuid.UUID      `db:"sender_id" json:"sender_id,omitempty"`     // Set only on transfer credits
	TransferID  *uuid.UUID      `db:"transfer_id" json:"transfer_id,omitempty"` // Shared by both legs of a transfer
	Description string          `db:"description" json:"description"`
	Amount      decimal.Decimal `db:"amount" json:"amount"` // NUMERIC(12, 2) in DB
	Type        OperationType   `db:"type" json:"type"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// NewStatement creates a new Statement instance with a fresh id.
func NewStatement(userID uuid.UUID, opType OperationType, amount decimal.Decimal, description string) *Statement {
	now := time.Now().UTC()
	return &Statement{
		ID:          uuid.New(),
		UserID:      userID,
		Description: description,
		Amount:      amount,
		Type:        opType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewTransferLegs builds the two statements of a transfer: the credit owned by the
// receiver and the debit owned by the sender. Both share one transfer id.
func NewTransferLegs(senderID, receiverID uuid.UUID, amount decimal.Decimal, description string) (credit, debit *Statement) {
	transferID := uuid.New()
	sender := senderID

	credit = NewStatement(receiverID, OperationTypeTransfer, amount, description)
	credit.SenderID = &sender
	credit.TransferID = &transferID

	debit = NewStatement(senderID, OperationTypeWithdraw, amount, description)
	debit.TransferID = &transferID
	debit.CreatedAt = credit.CreatedAt
	debit.UpdatedAt = credit.UpdatedAt
	return credit, debit
}

// SignedAmount returns the statement's effect on its owner's balance.
func (s Statement) SignedAmount() decimal.Decimal {
	if s.Type.IsCredit() {
		return s.Amount
	}
	return s.Amount.Neg()
}
