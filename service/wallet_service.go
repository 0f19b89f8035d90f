package service

import (
	"context"
	"fmt"
	"strings"

	"wagerly/events"
	"wagerly/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// TransactionPage is one page of a wallet's ledger history
type TransactionPage struct {
	Entries    []*models.LedgerEntry
	Pagination Pagination
}

// Reconciliation compares a wallet balance against its ledger
type Reconciliation struct {
	WalletID  int64
	Balance   decimal.Decimal
	LedgerSum decimal.Decimal
}

// Consistent reports whether balance and ledger agree
func (r *Reconciliation) Consistent() bool {
	return r.Balance.Equal(r.LedgerSum)
}

// walletService implements the WalletService interface
type walletService struct {
	uowFactory UnitOfWorkFactory
	ledger     *WalletLedger
}

// NewWalletService creates a new wallet service
func NewWalletService(uowFactory UnitOfWorkFactory, ledger *WalletLedger) WalletService {
	return &walletService{
		uowFactory: uowFactory,
		ledger:     ledger,
	}
}

func (s *walletService) GetBalance(ctx context.Context, userID int64) (*models.Wallet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, internal(err, "failed to begin transaction")
	}
	defer uow.Rollback()

	wallet, err := uow.WalletRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, internal(err, "failed to get wallet of user %d", userID)
	}
	if wallet == nil {
		return nil, notFound("Wallet not found.")
	}
	return wallet, nil
}

func (s *walletService) ListTransactions(ctx context.Context, userID int64, filter models.TransactionFilter) (*TransactionPage, error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, validation(fmt.Sprintf("Unknown transaction type %q.", filter.Type))
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, validation(fmt.Sprintf("Unknown transaction status %q.", filter.Status))
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, internal(err, "failed to begin transaction")
	}
	defer uow.Rollback()

	wallet, err := uow.WalletRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, internal(err, "failed to get wallet of user %d", userID)
	}
	if wallet == nil {
		return nil, notFound("Wallet not found.")
	}

	entries, total, err := uow.LedgerRepository().ListByWallet(ctx, wallet.ID, filter)
	if err != nil {
		return nil, internal(err, "failed to list transactions of wallet %d", wallet.ID)
	}

	return &TransactionPage{
		Entries:    entries,
		Pagination: newPagination(filter.Page, filter.Limit, total),
	}, nil
}

func (s *walletService) WithdrawInitiate(ctx context.Context, userID int64, amount decimal.Decimal, externalRef string) (*models.LedgerEntry, error) {
	if externalRef = strings.TrimSpace(externalRef); externalRef == "" {
		externalRef = uuid.NewString()
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, internal(err, "failed to begin transaction")
	}
	defer uow.Rollback()

	wallet, err := uow.WalletRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, internal(err, "failed to get wallet of user %d", userID)
	}
	if wallet == nil {
		return nil, notFound("Wallet not found.")
	}
	if !wallet.CanWithdraw() {
		return nil, invalidState("Payout account onboarding is not complete.")
	}

	entry, err := s.ledger.Hold(ctx, uow, LedgerRequest{
		UserID:      userID,
		Amount:      amount,
		Type:        models.TransactionTypeWithdraw,
		ExternalRef: &externalRef,
		Description: "Withdrawal to " + *wallet.PayoutAccountRef,
	})
	if err != nil {
		return nil, asServiceError(err, "failed to hold withdrawal")
	}

	if err := uow.Commit(); err != nil {
		return nil, internal(err, "failed to commit withdrawal")
	}

	log.WithFields(log.Fields{
		"userID":      userID,
		"entryID":     entry.ID,
		"externalRef": externalRef,
		"amount":      amount.StringFixed(models.MoneyPlaces),
	}).Info("Withdrawal initiated")

	return entry, nil
}

func (s *walletService) ConfirmDeposit(ctx context.Context, userID int64, amount decimal.Decimal, externalRef string) (*models.LedgerEntry, error) {
	if externalRef = strings.TrimSpace(externalRef); externalRef == "" {
		return nil, validation("External reference is required.")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, internal(err, "failed to begin transaction")
	}
	defer uow.Rollback()

	existing, err := uow.LedgerRepository().GetByExternalRefForUpdate(ctx, externalRef)
	if err != nil {
		return nil, internal(err, "failed to look up external reference %s", externalRef)
	}
	if existing != nil {
		if existing.Type != models.TransactionTypeDeposit || !existing.Amount.Equal(amount) {
			return nil, conflict("External reference is already used by another transaction.")
		}
		wallet, err := uow.WalletRepository().GetByUserID(ctx, userID)
		if err != nil {
			return nil, internal(err, "failed to get wallet of user %d", userID)
		}
		if wallet == nil || wallet.ID != existing.WalletID {
			return nil, conflict("External reference is already used by another transaction.")
		}
		log.WithField("externalRef", externalRef).Debug("Deposit already confirmed")
		return existing, nil
	}

	entry, err := s.ledger.Credit(ctx, uow, LedgerRequest{
		UserID:      userID,
		Amount:      amount,
		Type:        models.TransactionTypeDeposit,
		ExternalRef: &externalRef,
		Description: "Deposit",
	})
	if err != nil {
		return nil, asServiceError(err, "failed to credit deposit")
	}

	if err := uow.Commit(); err != nil {
		return nil, internal(err, "failed to commit deposit")
	}

	log.WithFields(log.Fields{
		"userID":      userID,
		"entryID":     entry.ID,
		"externalRef": externalRef,
		"amount":      amount.StringFixed(models.MoneyPlaces),
	}).Info("Deposit confirmed")

	return entry, nil
}

func (s *walletService) SettleWithdrawal(ctx context.Context, externalRef string, succeeded bool) (*models.LedgerEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, internal(err, "failed to begin transaction")
	}
	defer uow.Rollback()

	entry, err := uow.LedgerRepository().GetByExternalRefForUpdate(ctx, externalRef)
	if err != nil {
		return nil, internal(err, "failed to look up external reference %s", externalRef)
	}
	if entry == nil || entry.Type != models.TransactionTypeWithdraw {
		return nil, notFound("Withdrawal not found.")
	}

	target := models.TransactionStatusCompleted
	if !succeeded {
		target = models.TransactionStatusFailed
	}

	if !entry.IsPending() {
		if entry.Status == target {
			return entry, nil
		}
		return nil, invalidState(fmt.Sprintf("Withdrawal is already %s.", entry.Status))
	}

	if succeeded {
		if err := uow.LedgerRepository().UpdateStatus(ctx, entry.ID, models.TransactionStatusPending, target); err != nil {
			return nil, internal(err, "failed to complete withdrawal %d", entry.ID)
		}
		entry.Status = target
	} else if err := s.ledger.Release(ctx, uow, entry); err != nil {
		return nil, asServiceError(err, "failed to release withdrawal hold")
	}

	wallet, err := uow.WalletRepository().GetByIDForUpdate(ctx, entry.WalletID)
	if err != nil {
		return nil, internal(err, "failed to get wallet %d", entry.WalletID)
	}
	if wallet == nil {
		return nil, notFound("Wallet not found.")
	}

	uow.EventBus().Publish(events.WithdrawalSettledEvent{
		UserID:      wallet.UserID,
		EntryID:     entry.ID,
		ExternalRef: externalRef,
		Amount:      entry.Amount.Abs(),
		Status:      entry.Status,
	})

	if err := uow.Commit(); err != nil {
		return nil, internal(err, "failed to commit withdrawal settlement")
	}

	log.WithFields(log.Fields{
		"entryID":     entry.ID,
		"externalRef": externalRef,
		"status":      entry.Status,
	}).Info("Withdrawal settled")

	return entry, nil
}

func (s *walletService) LinkPayoutAccount(ctx context.Context, userID int64, accountRef string, onboardingComplete bool) error {
	if accountRef = strings.TrimSpace(accountRef); accountRef == "" {
		return validation("Payout account reference is required.")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return internal(err, "failed to begin transaction")
	}
	defer uow.Rollback()

	wallet, err := uow.WalletRepository().GetByUserIDForUpdate(ctx, userID)
	if err != nil {
		return internal(err, "failed to lock wallet of user %d", userID)
	}
	if wallet == nil {
		return notFound("Wallet not found.")
	}

	if err := uow.WalletRepository().SetPayoutAccount(ctx, userID, accountRef, onboardingComplete); err != nil {
		return internal(err, "failed to set payout account of user %d", userID)
	}

	if err := uow.Commit(); err != nil {
		return internal(err, "failed to commit payout account")
	}
	return nil
}

func (s *walletService) Reconcile(ctx context.Context, userID int64) (*Reconciliation, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, internal(err, "failed to begin transaction")
	}
	defer uow.Rollback()

	// Lock so no ledger write lands between the two reads
	wallet, err := uow.WalletRepository().GetByUserIDForUpdate(ctx, userID)
	if err != nil {
		return nil, internal(err, "failed to lock wallet of user %d", userID)
	}
	if wallet == nil {
		return nil, notFound("Wallet not found.")
	}

	sum, err := uow.LedgerRepository().SumBalanceAffecting(ctx, wallet.ID)
	if err != nil {
		return nil, internal(err, "failed to sum ledger of wallet %d", wallet.ID)
	}

	result := &Reconciliation{
		WalletID:  wallet.ID,
		Balance:   wallet.Balance,
		LedgerSum: sum,
	}
	if !result.Consistent() {
		log.WithFields(log.Fields{
			"walletID":  wallet.ID,
			"balance":   wallet.Balance.StringFixed(models.MoneyPlaces),
			"ledgerSum": sum.StringFixed(models.MoneyPlaces),
		}).Error("Wallet balance does not match ledger")
	}

	return result, nil
}
