package httpapi

import (
	"context"

	"wagerly/models"
	"wagerly/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) EnsureUser(ctx context.Context, username string, role models.Role) (*models.User, error) {
	args := m.Called(ctx, username, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type mockWalletService struct {
	mock.Mock
}

func (m *mockWalletService) GetBalance(ctx context.Context, userID int64) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *mockWalletService) ListTransactions(ctx context.Context, userID int64, filter models.TransactionFilter) (*service.TransactionPage, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TransactionPage), args.Error(1)
}

func (m *mockWalletService) WithdrawInitiate(ctx context.Context, userID int64, amount decimal.Decimal, externalRef string) (*models.LedgerEntry, error) {
	args := m.Called(ctx, userID, amount, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerEntry), args.Error(1)
}

func (m *mockWalletService) ConfirmDeposit(ctx context.Context, userID int64, amount decimal.Decimal, externalRef string) (*models.LedgerEntry, error) {
	args := m.Called(ctx, userID, amount, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerEntry), args.Error(1)
}

func (m *mockWalletService) SettleWithdrawal(ctx context.Context, externalRef string, succeeded bool) (*models.LedgerEntry, error) {
	args := m.Called(ctx, externalRef, succeeded)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerEntry), args.Error(1)
}

func (m *mockWalletService) LinkPayoutAccount(ctx context.Context, userID int64, accountRef string, onboardingComplete bool) error {
	args := m.Called(ctx, userID, accountRef, onboardingComplete)
	return args.Error(0)
}

func (m *mockWalletService) Reconcile(ctx context.Context, userID int64) (*service.Reconciliation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Reconciliation), args.Error(1)
}

type mockBetService struct {
	mock.Mock
}

func (m *mockBetService) Create(ctx context.Context, req service.CreateBetRequest) (*service.BetView, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BetView), args.Error(1)
}

func (m *mockBetService) Participate(ctx context.Context, betID, userID, optionID int64) (*service.ParticipationResult, error) {
	args := m.Called(ctx, betID, userID, optionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ParticipationResult), args.Error(1)
}

func (m *mockBetService) Resolve(ctx context.Context, betID, correctOptionID int64, actor service.Actor) (*service.ResolutionResult, error) {
	args := m.Called(ctx, betID, correctOptionID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ResolutionResult), args.Error(1)
}

func (m *mockBetService) Get(ctx context.Context, betID int64, actor service.Actor) (*service.BetView, error) {
	args := m.Called(ctx, betID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BetView), args.Error(1)
}

func (m *mockBetService) List(ctx context.Context, filter models.BetFilter, actor service.Actor) (*service.BetPage, error) {
	args := m.Called(ctx, filter, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BetPage), args.Error(1)
}

func (m *mockBetService) ListInvited(ctx context.Context, userID int64, page, limit int) (*service.BetPage, error) {
	args := m.Called(ctx, userID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BetPage), args.Error(1)
}

type mockDisputeService struct {
	mock.Mock
}

func (m *mockDisputeService) File(ctx context.Context, betID, userID int64, reason string) (*models.Dispute, error) {
	args := m.Called(ctx, betID, userID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeService) ListForBet(ctx context.Context, betID int64, actor service.Actor) ([]*models.Dispute, error) {
	args := m.Called(ctx, betID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Dispute), args.Error(1)
}

func (m *mockDisputeService) ListMine(ctx context.Context, userID int64) ([]*models.Dispute, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Dispute), args.Error(1)
}
