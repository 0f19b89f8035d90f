package testutil

import (
	"context"
	"testing"
	"time"

	"wagerly/database"
	"wagerly/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// CreateTestUser inserts a user with a wallet holding balance and returns both.
// The balance is written directly, without a ledger entry, so tests checking
// reconciliation should fund wallets through the ledger instead.
func CreateTestUser(t *testing.T, db *database.DB, username string, balance string) (*models.User, *models.Wallet) {
	t.Helper()
	ctx := context.Background()

	user := &models.User{Username: username, Role: models.RoleUser}
	err := db.QueryRow(ctx,
		`INSERT INTO users (username, role) VALUES ($1, $2) RETURNING id, created_at`,
		user.Username, user.Role,
	).Scan(&user.ID, &user.CreatedAt)
	require.NoError(t, err)

	wallet := &models.Wallet{UserID: user.ID, Balance: decimal.RequireFromString(balance)}
	err = db.QueryRow(ctx,
		`INSERT INTO wallets (user_id, balance) VALUES ($1, $2) RETURNING id, created_at, updated_at`,
		wallet.UserID, wallet.Balance,
	).Scan(&wallet.ID, &wallet.CreatedAt, &wallet.UpdatedAt)
	require.NoError(t, err)

	return user, wallet
}

// CreateTestBet builds an unsaved pending bet with a one-hour window on date
func CreateTestBet(ownerID int64, title string, stake string, date time.Time, start models.ClockTime) *models.Bet {
	return &models.Bet{
		OwnerID:     ownerID,
		Title:       title,
		Question:    "Who takes it?",
		ImageRef:    "images/test.png",
		StakeAmount: decimal.RequireFromString(stake),
		TotalPot:    decimal.Zero,
		Date:        time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		StartTime:   start,
		EndTime:     models.ClockTime{Hour: start.Hour + 1, Minute: start.Minute},
		Status:      models.BetStatusPending,
	}
}
