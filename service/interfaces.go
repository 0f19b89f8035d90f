package service

import (
	"context"
	"time"

	"wagerly/events"
	"wagerly/models"

	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByUsername retrieves a user by username
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// Create inserts a new user
	Create(ctx context.Context, username string, role models.Role) (*models.User, error)

	// ExistingIDs returns the subset of ids that belong to existing users
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

// WalletRepository defines the interface for wallet data access
type WalletRepository interface {
	// Create creates a zero-balance wallet for a user
	Create(ctx context.Context, userID int64) (*models.Wallet, error)

	// GetByUserID retrieves a user's wallet without locking it
	GetByUserID(ctx context.Context, userID int64) (*models.Wallet, error)

	// GetByUserIDForUpdate retrieves and row-locks a user's wallet until the transaction ends
	GetByUserIDForUpdate(ctx context.Context, userID int64) (*models.Wallet, error)

	// GetByIDForUpdate retrieves and row-locks a wallet by its own ID
	GetByIDForUpdate(ctx context.Context, walletID int64) (*models.Wallet, error)

	// UpdateBalance writes a new balance for a locked wallet
	UpdateBalance(ctx context.Context, walletID int64, balance decimal.Decimal) error

	// SetPayoutAccount records the external payout account of a wallet
	SetPayoutAccount(ctx context.Context, userID int64, accountRef string, onboardingComplete bool) error
}

// LedgerRepository defines the interface for ledger entry storage
type LedgerRepository interface {
	// Record inserts a new ledger entry, filling ID and timestamps
	Record(ctx context.Context, entry *models.LedgerEntry) error

	// GetByExternalRefForUpdate retrieves and row-locks the entry with an external reference
	GetByExternalRefForUpdate(ctx context.Context, externalRef string) (*models.LedgerEntry, error)

	// UpdateStatus moves an entry from one status to another, failing if it is no longer in from
	UpdateStatus(ctx context.Context, entryID int64, from, to models.TransactionStatus) error

	// ListByWallet returns a page of entries, newest first, with the unpaginated total
	ListByWallet(ctx context.Context, walletID int64, filter models.TransactionFilter) ([]*models.LedgerEntry, int, error)

	// SumBalanceAffecting sums the amounts of every pending or completed entry of a wallet
	SumBalanceAffecting(ctx context.Context, walletID int64) (decimal.Decimal, error)
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// Create inserts a bet, filling ID and timestamps
	Create(ctx context.Context, bet *models.Bet) error

	// CreateOptions inserts the ordered options of a bet
	CreateOptions(ctx context.Context, betID int64, labels []string) ([]*models.BetOption, error)

	// AddInvitations inserts invitations for a bet
	AddInvitations(ctx context.Context, invitations []*models.BetInvitation) error

	// ExistsLiveTitle checks for a non-cancelled bet of the owner with the same title, ignoring case
	ExistsLiveTitle(ctx context.Context, ownerID int64, title string) (bool, error)

	// GetByID retrieves a bet without its children
	GetByID(ctx context.Context, id int64) (*models.Bet, error)

	// GetDetail retrieves a bet with options, invitations and participants
	GetDetail(ctx context.Context, id int64) (*models.BetDetail, error)

	// GetDetailForUpdate is GetDetail with the bet row locked until the transaction ends
	GetDetailForUpdate(ctx context.Context, id int64) (*models.BetDetail, error)

	// AddParticipant inserts a participant entry
	AddParticipant(ctx context.Context, participant *models.BetParticipant) error

	// ConfirmInvitation marks an invitation as confirmed
	ConfirmInvitation(ctx context.Context, betID, userID int64) error

	// AddToPot increments the pot and returns the new total
	AddToPot(ctx context.Context, betID int64, amount decimal.Decimal) (decimal.Decimal, error)

	// UpdateParticipantPayouts writes is_winner and reward for every given participant
	UpdateParticipantPayouts(ctx context.Context, participants []*models.BetParticipant) error

	// MarkResolved moves a pending bet to resolved with its correct option
	MarkResolved(ctx context.Context, betID, correctOptionID int64, resolvedAt time.Time) error

	// List returns a page of bets matching filter, with phases evaluated at now in loc
	List(ctx context.Context, filter models.BetFilter, now time.Time, loc *time.Location) ([]*models.Bet, int, error)

	// ListInvited returns a page of bets the user is invited to but does not own
	ListInvited(ctx context.Context, userID int64, page, limit int) ([]*models.Bet, int, error)
}

// DisputeRepository defines the interface for dispute data access
type DisputeRepository interface {
	// Create inserts a dispute; a second one for the same bet and user wraps ErrDuplicate
	Create(ctx context.Context, dispute *models.Dispute) error

	// GetByBetAndUser retrieves the user's dispute on a bet
	GetByBetAndUser(ctx context.Context, betID, userID int64) (*models.Dispute, error)

	// ListByBet returns every dispute filed on a bet
	ListByBet(ctx context.Context, betID int64) ([]*models.Dispute, error)

	// ListByUser returns every dispute filed by a user
	ListByUser(ctx context.Context, userID int64) ([]*models.Dispute, error)
}

// EventPublisher queues events raised inside a unit of work
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes queued events
	Commit() error

	// Rollback rolls back the transaction and drops queued events. Safe after Commit.
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	WalletRepository() WalletRepository
	LedgerRepository() LedgerRepository
	BetRepository() BetRepository
	DisputeRepository() DisputeRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID int64
	Role   models.Role
}

// IsAdmin reports whether the actor has the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// UserService defines the interface for user provisioning
type UserService interface {
	// EnsureUser returns the user with username, creating it and its wallet on first sight
	EnsureUser(ctx context.Context, username string, role models.Role) (*models.User, error)

	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

// WalletService defines the wallet operations exposed to users and the payment gateway
type WalletService interface {
	// GetBalance returns the user's wallet
	GetBalance(ctx context.Context, userID int64) (*models.Wallet, error)

	// ListTransactions returns a page of the user's ledger entries
	ListTransactions(ctx context.Context, userID int64, filter models.TransactionFilter) (*TransactionPage, error)

	// WithdrawInitiate holds funds for a withdrawal pending external settlement
	WithdrawInitiate(ctx context.Context, userID int64, amount decimal.Decimal, externalRef string) (*models.LedgerEntry, error)

	// ConfirmDeposit credits externally funded money; repeated calls with the same reference are no-ops
	ConfirmDeposit(ctx context.Context, userID int64, amount decimal.Decimal, externalRef string) (*models.LedgerEntry, error)

	// SettleWithdrawal completes or fails a pending withdrawal
	SettleWithdrawal(ctx context.Context, externalRef string, succeeded bool) (*models.LedgerEntry, error)

	// LinkPayoutAccount records the user's external payout account
	LinkPayoutAccount(ctx context.Context, userID int64, accountRef string, onboardingComplete bool) error

	// Reconcile compares the wallet balance with the sum of its ledger entries
	Reconcile(ctx context.Context, userID int64) (*Reconciliation, error)
}

// BetService defines the bet lifecycle operations
type BetService interface {
	// Create validates and stores a new pending bet and reports its phase at commit time
	Create(ctx context.Context, req CreateBetRequest) (*BetView, error)

	// Participate stakes the user's answer on an open bet
	Participate(ctx context.Context, betID, userID, optionID int64) (*ParticipationResult, error)

	// Resolve declares the correct option of a closed bet and pays the winners
	Resolve(ctx context.Context, betID, correctOptionID int64, actor Actor) (*ResolutionResult, error)

	// Get returns a bet visible to the actor along with its current phase
	Get(ctx context.Context, betID int64, actor Actor) (*BetView, error)

	// List returns bets owned by the actor, or all bets for admins
	List(ctx context.Context, filter models.BetFilter, actor Actor) (*BetPage, error)

	// ListInvited returns bets the user was invited to by someone else
	ListInvited(ctx context.Context, userID int64, page, limit int) (*BetPage, error)
}

// DisputeService defines the dispute operations
type DisputeService interface {
	// File records a dispute against a resolved bet
	File(ctx context.Context, betID, userID int64, reason string) (*models.Dispute, error)

	// ListForBet returns the disputes on a bet; only the owner or an admin may see them
	ListForBet(ctx context.Context, betID int64, actor Actor) ([]*models.Dispute, error)

	// ListMine returns the disputes a user has filed
	ListMine(ctx context.Context, userID int64) ([]*models.Dispute, error)
}
