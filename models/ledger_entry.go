package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the purpose of a ledger entry
type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeWithdraw TransactionType = "withdraw"
	TransactionTypeBet      TransactionType = "bet"
	TransactionTypeWin      TransactionType = "win"
	TransactionTypeRefund   TransactionType = "refund"
)

// IsValid reports whether t is a known transaction type
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdraw, TransactionTypeBet, TransactionTypeWin, TransactionTypeRefund:
		return true
	}
	return false
}

// TransactionStatus tracks asynchronous settlement of a ledger entry
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// IsValid reports whether s is a known transaction status
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed:
		return true
	}
	return false
}

// LedgerEntry is an immutable record of one balance change. Amount is signed:
// debits are negative, credits positive. Only Status may change after insert,
// and only from pending.
type LedgerEntry struct {
	ID           int64             `db:"id"`
	WalletID     int64             `db:"wallet_id"`
	Type         TransactionType   `db:"type"`
	Amount       decimal.Decimal   `db:"amount"`
	BetID        *int64            `db:"bet_id"`
	ExternalRef  *string           `db:"external_ref"`
	BalanceAfter decimal.Decimal   `db:"balance_after"`
	Status       TransactionStatus `db:"status"`
	Description  string            `db:"description"`
	Metadata     map[string]any    `db:"metadata"`
	CreatedAt    time.Time         `db:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at"`
}

// IsPending reports whether the entry awaits external settlement
func (e *LedgerEntry) IsPending() bool {
	return e.Status == TransactionStatusPending
}

// TransactionFilter narrows a wallet's transaction history
type TransactionFilter struct {
	Type   TransactionType
	Status TransactionStatus
	Search string // Matched against the description
	Page   int
	Limit  int
}
