package repository

import (
	"context"
	"errors"
	"fmt"

	"wagerly/database"
	"wagerly/models"

	"github.com/jackc/pgx/v5"
)

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, username, role, created_at
		FROM users
		WHERE id = $1
	`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, role, created_at
		FROM users
		WHERE username = $1
	`

	user, err := scanUser(r.q.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %q: %w", username, err)
	}
	return user, nil
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, username string, role models.Role) (*models.User, error) {
	query := `
		INSERT INTO users (username, role)
		VALUES ($1, $2)
		RETURNING id, username, role, created_at
	`

	user, err := scanUser(r.q.QueryRow(ctx, query, username, role))
	if err != nil {
		return nil, wrapWriteError(err, "failed to create user %q", username)
	}
	return user, nil
}

// ExistingIDs returns the subset of ids that belong to existing users
func (r *UserRepository) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}

	rows, err := r.q.Query(ctx, `SELECT id FROM users WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user ids: %w", err)
	}

	existing, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan user ids: %w", err)
	}
	return existing, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Role, &user.CreatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}
