package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a user's spendable balance. Only ledger operations mutate it.
type Wallet struct {
	ID                       int64           `db:"id"`
	UserID                   int64           `db:"user_id"`
	Balance                  decimal.Decimal `db:"balance"`
	PayoutAccountRef         *string         `db:"payout_account_ref"`
	PayoutOnboardingComplete bool            `db:"payout_onboarding_complete"`
	CreatedAt                time.Time       `db:"created_at"`
	UpdatedAt                time.Time       `db:"updated_at"`
}

// CanCover reports whether the balance covers amount
func (w *Wallet) CanCover(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}

// CanWithdraw reports whether payouts can be sent to an external account
func (w *Wallet) CanWithdraw() bool {
	return w.PayoutAccountRef != nil && *w.PayoutAccountRef != "" && w.PayoutOnboardingComplete
}
