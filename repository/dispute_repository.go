package repository

import (
	"context"
	"errors"
	"fmt"

	"wagerly/database"
	"wagerly/models"

	"github.com/jackc/pgx/v5"
)

const disputeColumns = `id, bet_id, user_id, reason, status, created_at, updated_at`

// DisputeRepository implements the DisputeRepository interface
type DisputeRepository struct {
	q queryable
}

// NewDisputeRepository creates a new dispute repository
func NewDisputeRepository(db *database.DB) *DisputeRepository {
	return &DisputeRepository{q: db.Pool}
}

func newDisputeRepositoryWithTx(tx queryable) *DisputeRepository {
	return &DisputeRepository{q: tx}
}

// Create inserts a dispute
func (r *DisputeRepository) Create(ctx context.Context, dispute *models.Dispute) error {
	query := `
		INSERT INTO disputes (bet_id, user_id, reason, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		dispute.BetID,
		dispute.UserID,
		dispute.Reason,
		dispute.Status,
	).Scan(&dispute.ID, &dispute.CreatedAt, &dispute.UpdatedAt)
	if err != nil {
		return wrapWriteError(err, "failed to create dispute on bet %d", dispute.BetID)
	}

	return nil
}

// GetByBetAndUser retrieves the user's dispute on a bet
func (r *DisputeRepository) GetByBetAndUser(ctx context.Context, betID, userID int64) (*models.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE bet_id = $1 AND user_id = $2`

	var d models.Dispute
	err := r.q.QueryRow(ctx, query, betID, userID).Scan(
		&d.ID, &d.BetID, &d.UserID, &d.Reason, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dispute of user %d on bet %d: %w", userID, betID, err)
	}
	return &d, nil
}

// ListByBet returns every dispute filed on a bet, oldest first
func (r *DisputeRepository) ListByBet(ctx context.Context, betID int64) ([]*models.Dispute, error) {
	return r.list(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE bet_id = $1 ORDER BY created_at, id`, betID)
}

// ListByUser returns every dispute filed by a user, newest first
func (r *DisputeRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Dispute, error) {
	return r.list(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
}

func (r *DisputeRepository) list(ctx context.Context, query string, arg int64) ([]*models.Dispute, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes: %w", err)
	}

	disputes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Dispute, error) {
		var d models.Dispute
		err := row.Scan(&d.ID, &d.BetID, &d.UserID, &d.Reason, &d.Status, &d.CreatedAt, &d.UpdatedAt)
		return &d, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan disputes: %w", err)
	}
	return disputes, nil
}
