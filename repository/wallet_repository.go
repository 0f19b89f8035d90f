package repository

import (
	"context"
	"errors"
	"fmt"

	"wagerly/database"
	"wagerly/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const walletColumns = `id, user_id, balance, payout_account_ref, payout_onboarding_complete, created_at, updated_at`

// WalletRepository implements the WalletRepository interface
type WalletRepository struct {
	q queryable
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *database.DB) *WalletRepository {
	return &WalletRepository{q: db.Pool}
}

func newWalletRepositoryWithTx(tx queryable) *WalletRepository {
	return &WalletRepository{q: tx}
}

// Create creates a zero-balance wallet for a user
func (r *WalletRepository) Create(ctx context.Context, userID int64) (*models.Wallet, error) {
	query := `
		INSERT INTO wallets (user_id)
		VALUES ($1)
		RETURNING ` + walletColumns

	wallet, err := scanWallet(r.q.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, wrapWriteError(err, "failed to create wallet for user %d", userID)
	}
	return wallet, nil
}

// GetByUserID retrieves a user's wallet without locking it
func (r *WalletRepository) GetByUserID(ctx context.Context, userID int64) (*models.Wallet, error) {
	return r.getOne(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID)
}

// GetByUserIDForUpdate retrieves and row-locks a user's wallet
func (r *WalletRepository) GetByUserIDForUpdate(ctx context.Context, userID int64) (*models.Wallet, error) {
	return r.getOne(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 FOR UPDATE`, userID)
}

// GetByIDForUpdate retrieves and row-locks a wallet by its own ID
func (r *WalletRepository) GetByIDForUpdate(ctx context.Context, walletID int64) (*models.Wallet, error) {
	return r.getOne(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, walletID)
}

// UpdateBalance writes a new balance. The row must already be locked by the caller.
func (r *WalletRepository) UpdateBalance(ctx context.Context, walletID int64, balance decimal.Decimal) error {
	query := `
		UPDATE wallets
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, balance, walletID)
	if err != nil {
		return fmt.Errorf("failed to update balance for wallet %d: %w", walletID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("wallet %d not found", walletID)
	}

	return nil
}

// SetPayoutAccount records the external payout account of a wallet
func (r *WalletRepository) SetPayoutAccount(ctx context.Context, userID int64, accountRef string, onboardingComplete bool) error {
	query := `
		UPDATE wallets
		SET payout_account_ref = $1, payout_onboarding_complete = $2, updated_at = NOW()
		WHERE user_id = $3
	`

	result, err := r.q.Exec(ctx, query, accountRef, onboardingComplete, userID)
	if err != nil {
		return fmt.Errorf("failed to set payout account for user %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("wallet of user %d not found", userID)
	}

	return nil
}

func (r *WalletRepository) getOne(ctx context.Context, query string, arg int64) (*models.Wallet, error) {
	wallet, err := scanWallet(r.q.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

func scanWallet(row pgx.Row) (*models.Wallet, error) {
	var wallet models.Wallet
	err := row.Scan(
		&wallet.ID,
		&wallet.UserID,
		&wallet.Balance,
		&wallet.PayoutAccountRef,
		&wallet.PayoutOnboardingComplete,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}
