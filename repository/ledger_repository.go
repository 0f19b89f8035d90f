package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"wagerly/database"
	"wagerly/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const ledgerColumns = `id, wallet_id, type, amount, bet_id, external_ref, balance_after, status, description, metadata, created_at, updated_at`

// LedgerRepository implements the LedgerRepository interface
type LedgerRepository struct {
	q queryable
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{q: db.Pool}
}

func newLedgerRepositoryWithTx(tx queryable) *LedgerRepository {
	return &LedgerRepository{q: tx}
}

// Record inserts a new ledger entry
func (r *LedgerRepository) Record(ctx context.Context, entry *models.LedgerEntry) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger metadata: %w", err)
	}

	query := `
		INSERT INTO ledger_entries
		(wallet_id, type, amount, bet_id, external_ref, balance_after, status, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err = r.q.QueryRow(ctx, query,
		entry.WalletID,
		entry.Type,
		entry.Amount,
		entry.BetID,
		entry.ExternalRef,
		entry.BalanceAfter,
		entry.Status,
		entry.Description,
		metadataJSON,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return wrapWriteError(err, "failed to record ledger entry for wallet %d", entry.WalletID)
	}

	return nil
}

// GetByExternalRefForUpdate retrieves and row-locks the entry with an external reference
func (r *LedgerRepository) GetByExternalRefForUpdate(ctx context.Context, externalRef string) (*models.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE external_ref = $1 FOR UPDATE`

	entry, err := scanLedgerEntry(r.q.QueryRow(ctx, query, externalRef))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry %q: %w", externalRef, err)
	}
	return entry, nil
}

// UpdateStatus moves an entry from one status to another
func (r *LedgerRepository) UpdateStatus(ctx context.Context, entryID int64, from, to models.TransactionStatus) error {
	query := `
		UPDATE ledger_entries
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.q.Exec(ctx, query, entryID, from, to)
	if err != nil {
		return fmt.Errorf("failed to update ledger entry %d: %w", entryID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("ledger entry %d is not %s", entryID, from)
	}

	return nil
}

// ListByWallet returns a page of entries, newest first, with the unpaginated total
func (r *LedgerRepository) ListByWallet(ctx context.Context, walletID int64, filter models.TransactionFilter) ([]*models.LedgerEntry, int, error) {
	conditions := []string{"wallet_id = $1"}
	args := []any{walletID}

	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("description ILIKE $%d", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_entries WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries of wallet %d: %w", walletID, err)
	}

	args = append(args, filter.Limit, offset(filter.Page, filter.Limit))
	query := fmt.Sprintf(`
		SELECT %s
		FROM ledger_entries
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, ledgerColumns, where, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ledger entries of wallet %d: %w", walletID, err)
	}
	defer rows.Close()

	entries := []*models.LedgerEntry{}
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, total, nil
}

// SumBalanceAffecting sums every pending or completed entry of a wallet
func (r *LedgerRepository) SumBalanceAffecting(ctx context.Context, walletID int64) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE wallet_id = $1 AND status IN ('pending', 'completed')
	`

	var sum decimal.Decimal
	if err := r.q.QueryRow(ctx, query, walletID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum ledger of wallet %d: %w", walletID, err)
	}
	return sum, nil
}

func scanLedgerEntry(row pgx.Row) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	var metadataJSON []byte

	err := row.Scan(
		&entry.ID,
		&entry.WalletID,
		&entry.Type,
		&entry.Amount,
		&entry.BetID,
		&entry.ExternalRef,
		&entry.BalanceAfter,
		&entry.Status,
		&entry.Description,
		&metadataJSON,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ledger metadata: %w", err)
		}
	}

	return &entry, nil
}
