package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wagerly/database"
	"wagerly/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const betColumns = `b.id, b.owner_id, b.title, b.description, b.question, b.image_ref, b.stake_amount,
	b.total_pot, b.bet_date, b.start_time, b.end_time, b.status, b.correct_option_id, b.resolved_at,
	b.created_at, b.updated_at`

// Window bounds as instants, with the wall-clock times read in the zone passed as %s
const (
	betOpensAt  = `((b.bet_date + b.start_time::time) AT TIME ZONE %s)`
	betClosesAt = `((b.bet_date + b.end_time::time) AT TIME ZONE %s)`
)

// BetRepository implements the BetRepository interface
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

// Create inserts a bet
func (r *BetRepository) Create(ctx context.Context, bet *models.Bet) error {
	query := `
		INSERT INTO bets (
			owner_id, title, description, question, image_ref, stake_amount,
			total_pot, bet_date, start_time, end_time, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.OwnerID,
		bet.Title,
		bet.Description,
		bet.Question,
		bet.ImageRef,
		bet.StakeAmount,
		bet.TotalPot,
		bet.Date,
		bet.StartTime.String(),
		bet.EndTime.String(),
		bet.Status,
	).Scan(&bet.ID, &bet.CreatedAt, &bet.UpdatedAt)
	if err != nil {
		return wrapWriteError(err, "failed to create bet")
	}

	return nil
}

// CreateOptions inserts the options of a bet in the given order
func (r *BetRepository) CreateOptions(ctx context.Context, betID int64, labels []string) ([]*models.BetOption, error) {
	if len(labels) == 0 {
		return []*models.BetOption{}, nil
	}

	query := `INSERT INTO bet_options (bet_id, position, label) VALUES`
	args := make([]any, 0, len(labels)*3)
	options := make([]*models.BetOption, 0, len(labels))
	for i, label := range labels {
		if i > 0 {
			query += ","
		}
		paramIndex := i * 3
		query += fmt.Sprintf(" ($%d, $%d, $%d)", paramIndex+1, paramIndex+2, paramIndex+3)
		args = append(args, betID, int16(i), label)
		options = append(options, &models.BetOption{BetID: betID, Position: int16(i), Label: label})
	}
	query += " RETURNING id"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create options for bet %d: %w", betID, err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if i >= len(options) {
			return nil, fmt.Errorf("unexpected number of rows returned")
		}
		if err := rows.Scan(&options[i].ID); err != nil {
			return nil, fmt.Errorf("failed to scan option ID: %w", err)
		}
		i++
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to create options for bet %d: %w", betID, err)
	}

	return options, nil
}

// AddInvitations inserts invitations for a bet
func (r *BetRepository) AddInvitations(ctx context.Context, invitations []*models.BetInvitation) error {
	if len(invitations) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, inv := range invitations {
		batch.Queue(`
			INSERT INTO bet_invitations (bet_id, user_id, status)
			VALUES ($1, $2, $3)
			RETURNING created_at
		`, inv.BetID, inv.UserID, inv.Status).QueryRow(func(row pgx.Row) error {
			return row.Scan(&inv.CreatedAt)
		})
	}

	if err := r.sendBatch(ctx, batch); err != nil {
		return wrapWriteError(err, "failed to add invitations")
	}
	return nil
}

// ExistsLiveTitle checks for a non-cancelled bet of the owner with the same title
func (r *BetRepository) ExistsLiveTitle(ctx context.Context, ownerID int64, title string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bets
			WHERE owner_id = $1 AND LOWER(title) = LOWER($2) AND status <> 'cancelled'
		)
	`

	var exists bool
	if err := r.q.QueryRow(ctx, query, ownerID, title).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check title of owner %d: %w", ownerID, err)
	}
	return exists, nil
}

// GetByID retrieves a bet without its children
func (r *BetRepository) GetByID(ctx context.Context, id int64) (*models.Bet, error) {
	return r.getBet(ctx, `SELECT `+betColumns+` FROM bets b WHERE b.id = $1`, id)
}

// GetDetail retrieves a bet with options, invitations and participants
func (r *BetRepository) GetDetail(ctx context.Context, id int64) (*models.BetDetail, error) {
	bet, err := r.GetByID(ctx, id)
	if err != nil || bet == nil {
		return nil, err
	}
	return r.loadDetail(ctx, bet)
}

// GetDetailForUpdate is GetDetail with the bet row locked. Every writer of a
// bet's children takes this lock first, so the children read here are stable.
func (r *BetRepository) GetDetailForUpdate(ctx context.Context, id int64) (*models.BetDetail, error) {
	bet, err := r.getBet(ctx, `SELECT `+betColumns+` FROM bets b WHERE b.id = $1 FOR UPDATE`, id)
	if err != nil || bet == nil {
		return nil, err
	}
	return r.loadDetail(ctx, bet)
}

// AddParticipant inserts a participant entry
func (r *BetRepository) AddParticipant(ctx context.Context, participant *models.BetParticipant) error {
	query := `
		INSERT INTO bet_participants (bet_id, user_id, option_id, is_winner, reward)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		participant.BetID,
		participant.UserID,
		participant.OptionID,
		participant.IsWinner,
		participant.Reward,
	).Scan(&participant.CreatedAt)
	if err != nil {
		return wrapWriteError(err, "failed to add participant %d to bet %d", participant.UserID, participant.BetID)
	}

	return nil
}

// ConfirmInvitation marks an invitation as confirmed
func (r *BetRepository) ConfirmInvitation(ctx context.Context, betID, userID int64) error {
	query := `
		UPDATE bet_invitations
		SET status = 'confirmed'
		WHERE bet_id = $1 AND user_id = $2
	`

	result, err := r.q.Exec(ctx, query, betID, userID)
	if err != nil {
		return fmt.Errorf("failed to confirm invitation of user %d on bet %d: %w", userID, betID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("invitation of user %d on bet %d not found", userID, betID)
	}

	return nil
}

// AddToPot increments the pot and returns the new total
func (r *BetRepository) AddToPot(ctx context.Context, betID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE bets
		SET total_pot = total_pot + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING total_pot
	`

	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, query, betID, amount).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to add to pot of bet %d: %w", betID, err)
	}
	return total, nil
}

// UpdateParticipantPayouts writes is_winner and reward for every given participant
func (r *BetRepository) UpdateParticipantPayouts(ctx context.Context, participants []*models.BetParticipant) error {
	if len(participants) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range participants {
		batch.Queue(`
			UPDATE bet_participants
			SET is_winner = $3, reward = $4
			WHERE bet_id = $1 AND user_id = $2
		`, p.BetID, p.UserID, p.IsWinner, p.Reward)
	}

	if err := r.sendBatch(ctx, batch); err != nil {
		return fmt.Errorf("failed to update participant payouts: %w", err)
	}
	return nil
}

// MarkResolved moves a pending bet to resolved
func (r *BetRepository) MarkResolved(ctx context.Context, betID, correctOptionID int64, resolvedAt time.Time) error {
	query := `
		UPDATE bets
		SET status = 'resolved', correct_option_id = $2, resolved_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.q.Exec(ctx, query, betID, correctOptionID, resolvedAt)
	if err != nil {
		return fmt.Errorf("failed to resolve bet %d: %w", betID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("bet %d is not pending", betID)
	}

	return nil
}

// List returns a page of bets matching filter. The phase filter is evaluated
// in SQL against now, with window times interpreted in loc.
func (r *BetRepository) List(ctx context.Context, filter models.BetFilter, now time.Time, loc *time.Location) ([]*models.Bet, int, error) {
	if loc == nil {
		loc = time.UTC
	}

	var conditions []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.OwnerID != nil {
		conditions = append(conditions, "b.owner_id = "+arg(*filter.OwnerID))
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conditions = append(conditions, fmt.Sprintf("(b.title ILIKE %s OR b.question ILIKE %s)", p, p))
	}
	if filter.Phase != "" {
		cond, err := phaseCondition(filter.Phase, arg(now), arg(loc.String()))
		if err != nil {
			return nil, 0, err
		}
		conditions = append(conditions, cond)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM bets b `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bets: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM bets b
		%s
		ORDER BY b.bet_date DESC, b.start_time DESC, b.id DESC
		LIMIT %s OFFSET %s
	`, betColumns, where, arg(filter.Limit), arg(offset(filter.Page, filter.Limit)))

	bets, err := r.queryBets(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return bets, total, nil
}

// ListInvited returns a page of bets the user is invited to but does not own
func (r *BetRepository) ListInvited(ctx context.Context, userID int64, page, limit int) ([]*models.Bet, int, error) {
	countQuery := `
		SELECT COUNT(*)
		FROM bets b
		JOIN bet_invitations i ON i.bet_id = b.id
		WHERE i.user_id = $1 AND b.owner_id <> $1
	`

	var total int
	if err := r.q.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count invited bets of user %d: %w", userID, err)
	}

	query := `
		SELECT ` + betColumns + `
		FROM bets b
		JOIN bet_invitations i ON i.bet_id = b.id
		WHERE i.user_id = $1 AND b.owner_id <> $1
		ORDER BY b.bet_date DESC, b.start_time DESC, b.id DESC
		LIMIT $2 OFFSET $3
	`

	bets, err := r.queryBets(ctx, query, userID, limit, offset(page, limit))
	if err != nil {
		return nil, 0, err
	}
	return bets, total, nil
}

// phaseCondition mirrors models.EvaluatePhase as a SQL predicate
func phaseCondition(phase models.Phase, nowParam, locParam string) (string, error) {
	opensAt := fmt.Sprintf(betOpensAt, locParam+"::text")
	closesAt := fmt.Sprintf(betClosesAt, locParam+"::text")
	now := nowParam + "::timestamptz"

	switch phase {
	case models.PhaseResolved:
		return "b.status = 'resolved'", nil
	case models.PhaseCancelled:
		return "b.status = 'cancelled'", nil
	case models.PhaseUpcoming:
		return fmt.Sprintf("(b.status = 'pending' AND %s < %s)", now, opensAt), nil
	case models.PhaseOpen:
		return fmt.Sprintf("(b.status = 'pending' AND %s >= %s AND %s < %s)", now, opensAt, now, closesAt), nil
	case models.PhaseClosed:
		return fmt.Sprintf("(b.status = 'pending' AND %s >= %s)", now, closesAt), nil
	}
	return "", fmt.Errorf("unknown bet phase %q", phase)
}

func (r *BetRepository) getBet(ctx context.Context, query string, id int64) (*models.Bet, error) {
	bet, err := scanBet(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet %d: %w", id, err)
	}
	return bet, nil
}

func (r *BetRepository) queryBets(ctx context.Context, query string, args ...any) ([]*models.Bet, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}
	defer rows.Close()

	bets := []*models.Bet{}
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}

	return bets, nil
}

func (r *BetRepository) loadDetail(ctx context.Context, bet *models.Bet) (*models.BetDetail, error) {
	options, err := r.getOptions(ctx, bet.ID)
	if err != nil {
		return nil, err
	}

	invitations, err := r.getInvitations(ctx, bet.ID)
	if err != nil {
		return nil, err
	}

	participants, err := r.getParticipants(ctx, bet.ID)
	if err != nil {
		return nil, err
	}

	return &models.BetDetail{
		Bet:          bet,
		Options:      options,
		Invitations:  invitations,
		Participants: participants,
	}, nil
}

func (r *BetRepository) getOptions(ctx context.Context, betID int64) ([]*models.BetOption, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, bet_id, position, label
		FROM bet_options
		WHERE bet_id = $1
		ORDER BY position
	`, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get options of bet %d: %w", betID, err)
	}

	options, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.BetOption, error) {
		var o models.BetOption
		err := row.Scan(&o.ID, &o.BetID, &o.Position, &o.Label)
		return &o, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan options of bet %d: %w", betID, err)
	}
	return options, nil
}

func (r *BetRepository) getInvitations(ctx context.Context, betID int64) ([]*models.BetInvitation, error) {
	rows, err := r.q.Query(ctx, `
		SELECT bet_id, user_id, status, created_at
		FROM bet_invitations
		WHERE bet_id = $1
		ORDER BY user_id
	`, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get invitations of bet %d: %w", betID, err)
	}

	invitations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.BetInvitation, error) {
		var inv models.BetInvitation
		err := row.Scan(&inv.BetID, &inv.UserID, &inv.Status, &inv.CreatedAt)
		return &inv, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan invitations of bet %d: %w", betID, err)
	}
	return invitations, nil
}

func (r *BetRepository) getParticipants(ctx context.Context, betID int64) ([]*models.BetParticipant, error) {
	rows, err := r.q.Query(ctx, `
		SELECT bet_id, user_id, option_id, is_winner, reward, created_at
		FROM bet_participants
		WHERE bet_id = $1
		ORDER BY user_id
	`, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants of bet %d: %w", betID, err)
	}

	participants, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.BetParticipant, error) {
		var p models.BetParticipant
		err := row.Scan(&p.BetID, &p.UserID, &p.OptionID, &p.IsWinner, &p.Reward, &p.CreatedAt)
		return &p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan participants of bet %d: %w", betID, err)
	}
	return participants, nil
}

func (r *BetRepository) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	return r.q.SendBatch(ctx, batch).Close()
}

func scanBet(row pgx.Row) (*models.Bet, error) {
	var bet models.Bet
	var startTime, endTime string

	err := row.Scan(
		&bet.ID,
		&bet.OwnerID,
		&bet.Title,
		&bet.Description,
		&bet.Question,
		&bet.ImageRef,
		&bet.StakeAmount,
		&bet.TotalPot,
		&bet.Date,
		&startTime,
		&endTime,
		&bet.Status,
		&bet.CorrectOptionID,
		&bet.ResolvedAt,
		&bet.CreatedAt,
		&bet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if bet.StartTime, err = models.ParseClockTime(startTime); err != nil {
		return nil, err
	}
	if bet.EndTime, err = models.ParseClockTime(endTime); err != nil {
		return nil, err
	}

	return &bet, nil
}
