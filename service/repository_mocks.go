package service

import (
	"context"
	"sync"
	"time"

	"wagerly/events"
	"wagerly/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, username string, role models.Role) (*models.User, error) {
	args := m.Called(ctx, username, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockWalletRepository is a mock implementation of WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) Create(ctx context.Context, userID int64) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetByUserID(ctx context.Context, userID int64) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetByUserIDForUpdate(ctx context.Context, userID int64) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetByIDForUpdate(ctx context.Context, walletID int64) (*models.Wallet, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) UpdateBalance(ctx context.Context, walletID int64, balance decimal.Decimal) error {
	args := m.Called(ctx, walletID, balance)
	return args.Error(0)
}

func (m *MockWalletRepository) SetPayoutAccount(ctx context.Context, userID int64, accountRef string, onboardingComplete bool) error {
	args := m.Called(ctx, userID, accountRef, onboardingComplete)
	return args.Error(0)
}

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Record(ctx context.Context, entry *models.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetByExternalRefForUpdate(ctx context.Context, externalRef string) (*models.LedgerEntry, error) {
	args := m.Called(ctx, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) UpdateStatus(ctx context.Context, entryID int64, from, to models.TransactionStatus) error {
	args := m.Called(ctx, entryID, from, to)
	return args.Error(0)
}

func (m *MockLedgerRepository) ListByWallet(ctx context.Context, walletID int64, filter models.TransactionFilter) ([]*models.LedgerEntry, int, error) {
	args := m.Called(ctx, walletID, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Int(1), args.Error(2)
}

func (m *MockLedgerRepository) SumBalanceAffecting(ctx context.Context, walletID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, walletID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) Create(ctx context.Context, bet *models.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRepository) CreateOptions(ctx context.Context, betID int64, labels []string) ([]*models.BetOption, error) {
	args := m.Called(ctx, betID, labels)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BetOption), args.Error(1)
}

func (m *MockBetRepository) AddInvitations(ctx context.Context, invitations []*models.BetInvitation) error {
	args := m.Called(ctx, invitations)
	return args.Error(0)
}

func (m *MockBetRepository) ExistsLiveTitle(ctx context.Context, ownerID int64, title string) (bool, error) {
	args := m.Called(ctx, ownerID, title)
	return args.Bool(0), args.Error(1)
}

func (m *MockBetRepository) GetByID(ctx context.Context, id int64) (*models.Bet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}

func (m *MockBetRepository) GetDetail(ctx context.Context, id int64) (*models.BetDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetDetail), args.Error(1)
}

func (m *MockBetRepository) GetDetailForUpdate(ctx context.Context, id int64) (*models.BetDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetDetail), args.Error(1)
}

func (m *MockBetRepository) AddParticipant(ctx context.Context, participant *models.BetParticipant) error {
	args := m.Called(ctx, participant)
	return args.Error(0)
}

func (m *MockBetRepository) ConfirmInvitation(ctx context.Context, betID, userID int64) error {
	args := m.Called(ctx, betID, userID)
	return args.Error(0)
}

func (m *MockBetRepository) AddToPot(ctx context.Context, betID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, betID, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockBetRepository) UpdateParticipantPayouts(ctx context.Context, participants []*models.BetParticipant) error {
	args := m.Called(ctx, participants)
	return args.Error(0)
}

func (m *MockBetRepository) MarkResolved(ctx context.Context, betID, correctOptionID int64, resolvedAt time.Time) error {
	args := m.Called(ctx, betID, correctOptionID, resolvedAt)
	return args.Error(0)
}

func (m *MockBetRepository) List(ctx context.Context, filter models.BetFilter, now time.Time, loc *time.Location) ([]*models.Bet, int, error) {
	args := m.Called(ctx, filter, now, loc)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Bet), args.Int(1), args.Error(2)
}

func (m *MockBetRepository) ListInvited(ctx context.Context, userID int64, page, limit int) ([]*models.Bet, int, error) {
	args := m.Called(ctx, userID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Bet), args.Int(1), args.Error(2)
}

// MockDisputeRepository is a mock implementation of DisputeRepository
type MockDisputeRepository struct {
	mock.Mock
}

func (m *MockDisputeRepository) Create(ctx context.Context, dispute *models.Dispute) error {
	args := m.Called(ctx, dispute)
	return args.Error(0)
}

func (m *MockDisputeRepository) GetByBetAndUser(ctx context.Context, betID, userID int64) (*models.Dispute, error) {
	args := m.Called(ctx, betID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *MockDisputeRepository) ListByBet(ctx context.Context, betID int64) ([]*models.Dispute, error) {
	args := m.Called(ctx, betID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Dispute), args.Error(1)
}

func (m *MockDisputeRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Dispute, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Dispute), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu        sync.Mutex
	published []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, event)
}

// Events returns every event published so far
func (m *MockEventPublisher) Events() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.Event, len(m.published))
	copy(out, m.published)
	return out
}

// OfType returns published events of one type
func (m *MockEventPublisher) OfType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, e := range m.Events() {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Transaction calls go
// through testify; repository getters return whatever SetRepositories stored.
type MockUnitOfWork struct {
	mock.Mock
	userRepo    UserRepository
	walletRepo  WalletRepository
	ledgerRepo  LedgerRepository
	betRepo     BetRepository
	disputeRepo DisputeRepository
	publisher   *MockEventPublisher
}

// MockRepositories groups the repositories a MockUnitOfWork hands out
type MockRepositories struct {
	Users    UserRepository
	Wallets  WalletRepository
	Ledger   LedgerRepository
	Bets     BetRepository
	Disputes DisputeRepository
}

// SetRepositories wires the repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(repos MockRepositories) {
	m.userRepo = repos.Users
	m.walletRepo = repos.Wallets
	m.ledgerRepo = repos.Ledger
	m.betRepo = repos.Bets
	m.disputeRepo = repos.Disputes
}

// Publisher returns the event recorder behind EventBus
func (m *MockUnitOfWork) Publisher() *MockEventPublisher {
	if m.publisher == nil {
		m.publisher = &MockEventPublisher{}
	}
	return m.publisher
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) WalletRepository() WalletRepository {
	return m.walletRepo
}

func (m *MockUnitOfWork) LedgerRepository() LedgerRepository {
	return m.ledgerRepo
}

func (m *MockUnitOfWork) BetRepository() BetRepository {
	return m.betRepo
}

func (m *MockUnitOfWork) DisputeRepository() DisputeRepository {
	return m.disputeRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.Publisher()
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
