package service

import (
	"context"
	"strings"
	"testing"

	"wagerly/events"
	"wagerly/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDisputeService_File(t *testing.T) {
	ctx := context.Background()
	const (
		betID  = int64(5)
		player = int64(2)
	)
	resolvedDetail := func() *models.BetDetail {
		return createTestDetail(createTestBet(betID, 1, "10", models.BetStatusResolved), []int64{player})
	}

	t.Run("files a pending dispute", func(t *testing.T) {
		// Setup
		m := newTestMocks()
		service := NewDisputeService(m.factory)
		setupBasicTransactionMocks(m.uow)

		m.bets.On("GetDetail", ctx, betID).Return(resolvedDetail(), nil)
		m.disputes.On("GetByBetAndUser", ctx, betID, player).Return(nil, nil)
		m.disputes.On("Create", ctx, mock.MatchedBy(func(d *models.Dispute) bool {
			return d.Reason == "The referee got it wrong" && d.Status == models.DisputeStatusPending
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Dispute).ID = 3
		}).Return(nil)

		// Execute
		dispute, err := service.File(ctx, betID, player, "  The referee got it wrong ")

		// Verify
		require.NoError(t, err)
		assert.Equal(t, int64(3), dispute.ID)

		filed := m.uow.Publisher().OfType(events.EventTypeDisputeFiled)
		require.Len(t, filed, 1)
		assert.Equal(t, int64(1), filed[0].(events.DisputeFiledEvent).OwnerID)

		m.assertExpectations(t)
	})

	t.Run("second dispute by the same user", func(t *testing.T) {
		m := newTestMocks()
		service := NewDisputeService(m.factory)
		setupAbortedTransactionMocks(m.uow)

		m.bets.On("GetDetail", ctx, betID).Return(resolvedDetail(), nil)
		m.disputes.On("GetByBetAndUser", ctx, betID, player).Return(&models.Dispute{ID: 3}, nil)

		_, err := service.File(ctx, betID, player, "again")

		assertKind(t, err, KindConflict)
		m.disputes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		m.uow.AssertNotCalled(t, "Commit")
	})

	t.Run("concurrent duplicate caught by the unique index", func(t *testing.T) {
		m := newTestMocks()
		service := NewDisputeService(m.factory)
		setupAbortedTransactionMocks(m.uow)

		m.bets.On("GetDetail", ctx, betID).Return(resolvedDetail(), nil)
		m.disputes.On("GetByBetAndUser", ctx, betID, player).Return(nil, nil)
		m.disputes.On("Create", ctx, mock.Anything).Return(ErrDuplicate)

		_, err := service.File(ctx, betID, player, "again")

		assertKind(t, err, KindConflict)
	})

	t.Run("bet still pending", func(t *testing.T) {
		m := newTestMocks()
		service := NewDisputeService(m.factory)
		setupAbortedTransactionMocks(m.uow)

		pending := createTestDetail(createTestBet(betID, 1, "10", models.BetStatusPending), []int64{player})
		m.bets.On("GetDetail", ctx, betID).Return(pending, nil)

		_, err := service.File(ctx, betID, player, "too early")

		assertKind(t, err, KindInvalidState)
	})

	t.Run("user was never invited", func(t *testing.T) {
		m := newTestMocks()
		service := NewDisputeService(m.factory)
		setupAbortedTransactionMocks(m.uow)
		m.bets.On("GetDetail", ctx, betID).Return(resolvedDetail(), nil)

		_, err := service.File(ctx, betID, 42, "not mine")

		assertKind(t, err, KindForbidden)
	})

	t.Run("bet not found", func(t *testing.T) {
		m := newTestMocks()
		service := NewDisputeService(m.factory)
		setupAbortedTransactionMocks(m.uow)
		m.bets.On("GetDetail", ctx, betID).Return(nil, nil)

		_, err := service.File(ctx, betID, player, "where")

		assertKind(t, err, KindNotFound)
	})

	t.Run("reason must be present and bounded", func(t *testing.T) {
		m := newTestMocks()
		service := NewDisputeService(m.factory)

		_, err := service.File(ctx, betID, player, "   ")
		assertKind(t, err, KindValidation)

		_, err = service.File(ctx, betID, player, strings.Repeat("x", maxDisputeReasonLength+1))
		assertKind(t, err, KindValidation)

		m.factory.AssertNotCalled(t, "Create")
	})
}

func TestDisputeService_ListForBet(t *testing.T) {
	ctx := context.Background()
	bet := createTestBet(5, 1, "10", models.BetStatusResolved)

	t.Run("owner sees all disputes", func(t *testing.T) {
		m := newTestMocks()
		service := NewDisputeService(m.factory)
		setupAbortedTransactionMocks(m.uow)
		m.bets.On("GetByID", ctx, int64(5)).Return(bet, nil)
		m.disputes.On("ListByBet", ctx, int64(5)).Return([]*models.Dispute{{ID: 1}, {ID: 2}}, nil)

		disputes, err := service.ListForBet(ctx, 5, Actor{UserID: 1, Role: models.RoleUser})

		require.NoError(t, err)
		assert.Len(t, disputes, 2)
	})

	t.Run("participants cannot list other disputes", func(t *testing.T) {
		m := newTestMocks()
		service := NewDisputeService(m.factory)
		setupAbortedTransactionMocks(m.uow)
		m.bets.On("GetByID", ctx, int64(5)).Return(bet, nil)

		_, err := service.ListForBet(ctx, 5, Actor{UserID: 2, Role: models.RoleUser})

		assertKind(t, err, KindForbidden)
		m.disputes.AssertNotCalled(t, "ListByBet", mock.Anything, mock.Anything)
	})
}

func TestDisputeService_ListMine(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()
	service := NewDisputeService(m.factory)
	setupAbortedTransactionMocks(m.uow)
	m.disputes.On("ListByUser", ctx, int64(2)).Return([]*models.Dispute{{ID: 7, UserID: 2}}, nil)

	disputes, err := service.ListMine(ctx, 2)

	require.NoError(t, err)
	require.Len(t, disputes, 1)
	assert.Equal(t, int64(7), disputes[0].ID)
}
