package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType categorizes a balance-affecting event. The amount is
// always a non-negative magnitude; the direction is implied by the type.
type TransactionType string

const (
	TransactionTypeBet        TransactionType = "bet"
	TransactionTypePayout     TransactionType = "payout"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

// Valid reports whether the transaction type is one of the allowed values
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeBet, TransactionTypePayout, TransactionTypeWithdrawal:
		return true
	}
	return false
}

// TransactionStatus is the processing state of a transaction.
// Bet and payout transactions are recorded completed; withdrawals start
// pending and transition to completed or failed.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction is an append-only audit record of a balance mutation.
// ReferenceID links the transaction to the game session or withdrawal
// that caused it.
type Transaction struct {
	ID          string            `db:"id"`
	UserID      string            `db:"user_id"`
	Type        TransactionType   `db:"type"`
	Amount      decimal.Decimal   `db:"amount"`
	Status      TransactionStatus `db:"status"`
	ReferenceID string            `db:"reference_id"`
	Metadata    map[string]any    `db:"metadata"`
	CreatedAt   time.Time         `db:"created_at"`
}

// WithdrawalResult is returned to the user after a withdrawal request is
// accepted. Execution is asynchronous; the transaction stays pending.
type WithdrawalResult struct {
	WithdrawalID string
	Status       TransactionStatus
	Amount       decimal.Decimal
	Fee          decimal.Decimal
	NewBalance   decimal.Decimal
}
