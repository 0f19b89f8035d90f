package service

import (
	"testing"
	"time"

	"wagerly/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Test utilities

var (
	testBetDate  = time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	beforeWindow = FixedClock{At: time.Date(2025, 6, 14, 17, 0, 0, 0, time.UTC)}
	insideWindow = FixedClock{At: time.Date(2025, 6, 14, 19, 0, 0, 0, time.UTC)}
	afterWindow  = FixedClock{At: time.Date(2025, 6, 14, 21, 0, 0, 0, time.UTC)}
)

type testMocks struct {
	factory  *MockUnitOfWorkFactory
	uow      *MockUnitOfWork
	users    *MockUserRepository
	wallets  *MockWalletRepository
	ledger   *MockLedgerRepository
	bets     *MockBetRepository
	disputes *MockDisputeRepository
}

func newTestMocks() *testMocks {
	m := &testMocks{
		factory:  new(MockUnitOfWorkFactory),
		uow:      new(MockUnitOfWork),
		users:    new(MockUserRepository),
		wallets:  new(MockWalletRepository),
		ledger:   new(MockLedgerRepository),
		bets:     new(MockBetRepository),
		disputes: new(MockDisputeRepository),
	}
	m.uow.SetRepositories(MockRepositories{
		Users:    m.users,
		Wallets:  m.wallets,
		Ledger:   m.ledger,
		Bets:     m.bets,
		Disputes: m.disputes,
	})
	m.factory.On("Create").Return(m.uow)
	return m
}

func (m *testMocks) assertExpectations(t *testing.T) {
	assertAllMockExpectations(t, m.factory, m.uow, m.users, m.wallets, m.ledger, m.bets, m.disputes)
}

func setupBasicTransactionMocks(mockUoW *MockUnitOfWork) {
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
}

// setupAbortedTransactionMocks is for paths that must never commit
func setupAbortedTransactionMocks(mockUoW *MockUnitOfWork) {
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
}

func assertAllMockExpectations(t *testing.T, mocks ...interface{}) {
	for _, m := range mocks {
		if mockObj, ok := m.(interface{ AssertExpectations(mock.TestingT) bool }); ok {
			mockObj.AssertExpectations(t)
		}
	}
}

func assertKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	if assert.Error(t, err) {
		assert.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// decEq matches a decimal argument by value rather than representation
func decEq(s string) interface{} {
	want := dec(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(want)
	})
}

func createTestWallet(walletID, userID int64, balance string) *models.Wallet {
	return &models.Wallet{
		ID:      walletID,
		UserID:  userID,
		Balance: dec(balance),
	}
}

func createTestBet(betID, ownerID int64, stake string, status models.BetStatus) *models.Bet {
	return &models.Bet{
		ID:          betID,
		OwnerID:     ownerID,
		Title:       "Who wins the derby?",
		Question:    "Pick the winner",
		ImageRef:    "images/derby.png",
		StakeAmount: dec(stake),
		TotalPot:    decimal.Zero,
		Date:        testBetDate,
		StartTime:   models.ClockTime{Hour: 18},
		EndTime:     models.ClockTime{Hour: 20},
		Status:      status,
	}
}

func createTestDetail(bet *models.Bet, invitees []int64, participants ...*models.BetParticipant) *models.BetDetail {
	detail := &models.BetDetail{
		Bet: bet,
		Options: []*models.BetOption{
			{ID: 10, BetID: bet.ID, Position: 0, Label: "Home"},
			{ID: 11, BetID: bet.ID, Position: 1, Label: "Away"},
			{ID: 12, BetID: bet.ID, Position: 2, Label: "Draw"},
		},
		Participants: participants,
	}
	detail.Invitations = append(detail.Invitations, &models.BetInvitation{
		BetID: bet.ID, UserID: bet.OwnerID, Status: models.InvitationStatusConfirmed,
	})
	for _, id := range invitees {
		detail.Invitations = append(detail.Invitations, &models.BetInvitation{
			BetID: bet.ID, UserID: id, Status: models.InvitationStatusNotConfirmed,
		})
	}
	return detail
}

func createTestParticipant(betID, userID, optionID int64) *models.BetParticipant {
	return &models.BetParticipant{
		BetID:    betID,
		UserID:   userID,
		OptionID: optionID,
		Reward:   decimal.Zero,
	}
}

// expectRecord accepts any ledger entry and assigns it an ID
func expectRecord(mockLedger *MockLedgerRepository, entryID int64) {
	mockLedger.On("Record", mock.Anything, mock.AnythingOfType("*models.LedgerEntry")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.LedgerEntry).ID = entryID
		}).
		Return(nil)
}
