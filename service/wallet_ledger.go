package service

import (
	"context"
	"errors"
	"fmt"

	"wagerly/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// LedgerRequest describes one balance movement. Amount is always positive;
// the ledger operation decides the sign of the stored entry.
type LedgerRequest struct {
	UserID      int64
	Amount      decimal.Decimal
	Type        models.TransactionType
	BetID       *int64
	ExternalRef *string
	Description string
	Metadata    map[string]any
}

// WalletLedger pairs every balance write with exactly one ledger entry. Its
// operations run inside the caller's unit of work so they commit or roll back
// together with whatever else the caller changes, and they lock the wallet row
// first so concurrent debits and credits on one wallet serialize.
type WalletLedger struct{}

// NewWalletLedger creates a new wallet ledger
func NewWalletLedger() *WalletLedger {
	return &WalletLedger{}
}

// Debit removes funds, failing with InsufficientFunds when the balance is short
func (l *WalletLedger) Debit(ctx context.Context, uow UnitOfWork, req LedgerRequest) (*models.LedgerEntry, error) {
	return l.debit(ctx, uow, req, models.TransactionStatusCompleted)
}

// Hold debits funds immediately but leaves the entry pending until the payment
// gateway settles it, so held money cannot be spent twice.
func (l *WalletLedger) Hold(ctx context.Context, uow UnitOfWork, req LedgerRequest) (*models.LedgerEntry, error) {
	return l.debit(ctx, uow, req, models.TransactionStatusPending)
}

// Credit adds funds. There is no upper bound.
func (l *WalletLedger) Credit(ctx context.Context, uow UnitOfWork, req LedgerRequest) (*models.LedgerEntry, error) {
	if err := validateLedgerAmount(req.Amount); err != nil {
		return nil, err
	}

	wallet, err := l.lockWallet(ctx, uow, req.UserID)
	if err != nil {
		return nil, err
	}

	newBalance := wallet.Balance.Add(req.Amount)
	return l.write(ctx, uow, wallet, newBalance, req, req.Amount, models.TransactionStatusCompleted)
}

// Release fails a pending hold and returns its funds to the wallet. The entry
// moves to failed, which takes it out of the balance sum.
func (l *WalletLedger) Release(ctx context.Context, uow UnitOfWork, entry *models.LedgerEntry) error {
	if !entry.IsPending() {
		return invalidState(fmt.Sprintf("Transaction is already %s.", entry.Status))
	}

	wallet, err := uow.WalletRepository().GetByIDForUpdate(ctx, entry.WalletID)
	if err != nil {
		return internal(err, "failed to lock wallet %d", entry.WalletID)
	}
	if wallet == nil {
		return notFound("Wallet not found.")
	}

	restored := wallet.Balance.Add(entry.Amount.Abs())
	if err := uow.WalletRepository().UpdateBalance(ctx, wallet.ID, restored); err != nil {
		return internal(err, "failed to restore balance for wallet %d", wallet.ID)
	}
	if err := uow.LedgerRepository().UpdateStatus(ctx, entry.ID, models.TransactionStatusPending, models.TransactionStatusFailed); err != nil {
		return internal(err, "failed to fail ledger entry %d", entry.ID)
	}

	entry.Status = models.TransactionStatusFailed

	log.WithFields(log.Fields{
		"walletID": wallet.ID,
		"entryID":  entry.ID,
		"amount":   entry.Amount.Abs().StringFixed(models.MoneyPlaces),
		"balance":  restored.StringFixed(models.MoneyPlaces),
	}).Info("Released held funds")

	return nil
}

func (l *WalletLedger) debit(ctx context.Context, uow UnitOfWork, req LedgerRequest, status models.TransactionStatus) (*models.LedgerEntry, error) {
	if err := validateLedgerAmount(req.Amount); err != nil {
		return nil, err
	}

	wallet, err := l.lockWallet(ctx, uow, req.UserID)
	if err != nil {
		return nil, err
	}

	if !wallet.CanCover(req.Amount) {
		log.WithFields(log.Fields{
			"userID":    req.UserID,
			"balance":   wallet.Balance.StringFixed(models.MoneyPlaces),
			"requested": req.Amount.StringFixed(models.MoneyPlaces),
			"type":      req.Type,
		}).Debug("Debit rejected for insufficient funds")
		return nil, insufficientFunds("Insufficient funds.")
	}

	newBalance := wallet.Balance.Sub(req.Amount)
	return l.write(ctx, uow, wallet, newBalance, req, req.Amount.Neg(), status)
}

func (l *WalletLedger) lockWallet(ctx context.Context, uow UnitOfWork, userID int64) (*models.Wallet, error) {
	wallet, err := uow.WalletRepository().GetByUserIDForUpdate(ctx, userID)
	if err != nil {
		return nil, internal(err, "failed to lock wallet of user %d", userID)
	}
	if wallet == nil {
		return nil, notFound("Wallet not found.")
	}
	return wallet, nil
}

func (l *WalletLedger) write(ctx context.Context, uow UnitOfWork, wallet *models.Wallet, newBalance decimal.Decimal, req LedgerRequest, signed decimal.Decimal, status models.TransactionStatus) (*models.LedgerEntry, error) {
	if err := uow.WalletRepository().UpdateBalance(ctx, wallet.ID, newBalance); err != nil {
		return nil, internal(err, "failed to update balance of wallet %d", wallet.ID)
	}

	entry := &models.LedgerEntry{
		WalletID:     wallet.ID,
		Type:         req.Type,
		Amount:       signed,
		BetID:        req.BetID,
		ExternalRef:  req.ExternalRef,
		BalanceAfter: newBalance,
		Status:       status,
		Description:  req.Description,
		Metadata:     req.Metadata,
	}
	if err := recordLedgerEntry(ctx, uow, wallet, entry); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, conflict("External reference is already used by another transaction.")
		}
		return nil, internal(err, "failed to record %s entry for wallet %d", req.Type, wallet.ID)
	}

	wallet.Balance = newBalance

	log.WithFields(log.Fields{
		"userID":       wallet.UserID,
		"walletID":     wallet.ID,
		"entryID":      entry.ID,
		"type":         entry.Type,
		"status":       entry.Status,
		"amount":       signed.StringFixed(models.MoneyPlaces),
		"balanceAfter": newBalance.StringFixed(models.MoneyPlaces),
	}).Debug("Ledger entry written")

	return entry, nil
}

func validateLedgerAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return validation("Amount must be greater than zero.")
	}
	if !models.HasMoneyPrecision(amount) {
		return validation("Amount cannot have more than two decimal places.")
	}
	return nil
}
