package service

import (
	"context"
	"fmt"

	"wagerly/events"
	"wagerly/models"
)

// recordLedgerEntry stores an entry and queues the matching balance change event.
// Every balance mutation in the system goes through it.
func recordLedgerEntry(ctx context.Context, uow UnitOfWork, wallet *models.Wallet, entry *models.LedgerEntry) error {
	if err := uow.LedgerRepository().Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          wallet.UserID,
		WalletID:        wallet.ID,
		EntryID:         entry.ID,
		TransactionType: entry.Type,
		Status:          entry.Status,
		Amount:          entry.Amount,
		BalanceAfter:    entry.BalanceAfter,
		BetID:           entry.BetID,
	})

	return nil
}
