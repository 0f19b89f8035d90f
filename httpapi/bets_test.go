package httpapi

import (
	"net/http"
	"testing"
	"time"

	"wagerly/models"
	"wagerly/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleBet() *models.Bet {
	return &models.Bet{
		ID:          5,
		OwnerID:     1,
		Title:       "Derby",
		Question:    "Who wins?",
		ImageRef:    "img/derby.png",
		StakeAmount: decimal.NewFromInt(30),
		TotalPot:    decimal.RequireFromString("90"),
		Date:        time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
		StartTime:   models.ClockTime{Hour: 18},
		EndTime:     models.ClockTime{Hour: 19, Minute: 30},
		Status:      models.BetStatusPending,
	}
}

func TestCreateBet(t *testing.T) {
	body := map[string]any{
		"title":        "Derby",
		"question":     "Who wins?",
		"image_ref":    "img/derby.png",
		"stake_amount": "30.00",
		"options":      []string{"Home", "Away"},
		"invitee_ids":  []int64{2, 3},
		"date":         "2025-06-14",
		"start_time":   "18:00",
		"end_time":     "19:30",
	}

	t.Run("owner comes from the token", func(t *testing.T) {
		api := newTestAPI(t)
		api.bets.On("Create", mock.Anything, mock.MatchedBy(func(req service.CreateBetRequest) bool {
			return req.OwnerID == 1 &&
				req.StakeAmount.Equal(decimal.NewFromInt(30)) &&
				req.Date.Equal(time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)) &&
				req.StartTime == models.ClockTime{Hour: 18} &&
				req.EndTime == models.ClockTime{Hour: 19, Minute: 30} &&
				len(req.Options) == 2
		})).Return(&service.BetView{
			Detail: &models.BetDetail{
				Bet:     sampleBet(),
				Options: []*models.BetOption{{ID: 10, Position: 1, Label: "Home"}, {ID: 11, Position: 2, Label: "Away"}},
			},
			Phase: models.PhaseUpcoming,
		}, nil)

		rec, resp := api.as(t, 1, "user", http.MethodPost, "/api/bets", body)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.True(t, resp.Success)
		var view betDetailView
		resp.decodeData(t, &view)
		assert.Equal(t, int64(5), view.ID)
		assert.Equal(t, "30.00", view.StakeAmount)
		assert.Equal(t, "2025-06-14", view.Date)
		assert.Equal(t, "19:30", view.EndTime)
		assert.Equal(t, "upcoming", view.Phase)
		assert.Len(t, view.Options, 2)
	})

	t.Run("bet created after its window reports closed", func(t *testing.T) {
		api := newTestAPI(t)
		api.bets.On("Create", mock.Anything, mock.Anything).Return(&service.BetView{
			Detail: &models.BetDetail{Bet: sampleBet()},
			Phase:  models.PhaseClosed,
		}, nil)

		rec, resp := api.as(t, 1, "user", http.MethodPost, "/api/bets", body)

		require.Equal(t, http.StatusCreated, rec.Code)
		var view betDetailView
		resp.decodeData(t, &view)
		assert.Equal(t, "closed", view.Phase)
	})

	t.Run("malformed date never reaches the service", func(t *testing.T) {
		api := newTestAPI(t)
		bad := map[string]any{}
		for k, v := range body {
			bad[k] = v
		}
		bad["date"] = "14/06/2025"

		rec, resp := api.as(t, 1, "user", http.MethodPost, "/api/bets", bad)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "validation", resp.kind(t))
	})

	t.Run("malformed start time", func(t *testing.T) {
		api := newTestAPI(t)
		bad := map[string]any{}
		for k, v := range body {
			bad[k] = v
		}
		bad["start_time"] = "6pm"

		rec, resp := api.as(t, 1, "user", http.MethodPost, "/api/bets", bad)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Start time must be formatted as HH:MM.", resp.Message)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		api := newTestAPI(t)
		rec, _ := api.as(t, 1, "user", http.MethodPost, "/api/bets", `{"title":"x","owner_id":9}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate title is a conflict", func(t *testing.T) {
		api := newTestAPI(t)
		api.bets.On("Create", mock.Anything, mock.Anything).
			Return(nil, &service.Error{Kind: service.KindConflict, Message: "A bet with this title already exists."})

		rec, resp := api.as(t, 1, "user", http.MethodPost, "/api/bets", body)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "A bet with this title already exists.", resp.Message)
	})
}

func TestParticipate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		api := newTestAPI(t)
		api.bets.On("Participate", mock.Anything, int64(5), int64(2), int64(10)).Return(&service.ParticipationResult{
			Participant: &models.BetParticipant{BetID: 5, UserID: 2, OptionID: 10, Reward: decimal.Zero},
			Entry: &models.LedgerEntry{
				ID:           40,
				Type:         models.TransactionTypeBet,
				Amount:       decimal.NewFromInt(-30),
				BalanceAfter: decimal.NewFromInt(70),
				Status:       models.TransactionStatusCompleted,
			},
			TotalPot: decimal.NewFromInt(60),
		}, nil)

		rec, resp := api.as(t, 2, "user", http.MethodPost, "/api/bets/5/participate", map[string]int64{"option_id": 10})

		require.Equal(t, http.StatusOK, rec.Code)
		var view participationView
		resp.decodeData(t, &view)
		assert.Equal(t, "60.00", view.TotalPot)
		assert.Equal(t, "-30.00", view.Transaction.Amount)
		assert.Equal(t, "70.00", view.Transaction.BalanceAfter)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		api := newTestAPI(t)
		api.bets.On("Participate", mock.Anything, int64(5), int64(2), int64(10)).
			Return(nil, &service.Error{Kind: service.KindInsufficientFunds, Message: "Insufficient funds."})

		rec, resp := api.as(t, 2, "user", http.MethodPost, "/api/bets/5/participate", map[string]int64{"option_id": 10})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "insufficient_funds", resp.kind(t))
	})

	t.Run("not invited", func(t *testing.T) {
		api := newTestAPI(t)
		api.bets.On("Participate", mock.Anything, int64(5), int64(9), int64(10)).
			Return(nil, &service.Error{Kind: service.KindForbidden, Message: "You are not invited to this bet."})

		rec, _ := api.as(t, 9, "user", http.MethodPost, "/api/bets/5/participate", map[string]int64{"option_id": 10})

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing option", func(t *testing.T) {
		api := newTestAPI(t)
		rec, _ := api.as(t, 2, "user", http.MethodPost, "/api/bets/5/participate", map[string]int64{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad bet id", func(t *testing.T) {
		api := newTestAPI(t)
		rec, resp := api.as(t, 2, "user", http.MethodPost, "/api/bets/abc/participate", map[string]int64{"option_id": 10})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid bet ID.", resp.Message)
	})
}

func TestResolveBet(t *testing.T) {
	api := newTestAPI(t)
	bet := sampleBet()
	bet.Status = models.BetStatusResolved
	correct := int64(10)
	bet.CorrectOptionID = &correct

	admin := service.Actor{UserID: 99, Role: models.RoleAdmin}
	api.bets.On("Resolve", mock.Anything, int64(5), int64(10), admin).Return(&service.ResolutionResult{
		Bet: bet,
		Payout: &service.Payout{
			CorrectOptionID: 10,
			Winners: []*models.BetParticipant{
				{UserID: 2, OptionID: 10, IsWinner: true, Reward: decimal.NewFromInt(45)},
				{UserID: 3, OptionID: 10, IsWinner: true, Reward: decimal.NewFromInt(45)},
			},
			Losers:          []*models.BetParticipant{{UserID: 1, OptionID: 11, Reward: decimal.Zero}},
			RewardPerWinner: decimal.NewFromInt(45),
			TotalPaid:       decimal.NewFromInt(90),
			Retained:        decimal.Zero,
		},
		Message: "Winner set successfully and prizes distributed.",
	}, nil)

	rec, resp := api.as(t, 99, "admin", http.MethodPost, "/api/bets/5/resolve", map[string]int64{"correct_option_id": 10})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Winner set successfully and prizes distributed.", resp.Message)
	var view resolutionView
	resp.decodeData(t, &view)
	assert.Equal(t, "45.00", view.RewardPerWinner)
	assert.Len(t, view.Winners, 2)
	assert.Len(t, view.Losers, 1)
	assert.Equal(t, "resolved", view.Bet.Phase)
}

func TestGetAndListBets(t *testing.T) {
	t.Run("get carries the phase", func(t *testing.T) {
		api := newTestAPI(t)
		api.bets.On("Get", mock.Anything, int64(5), service.Actor{UserID: 2, Role: models.RoleUser}).
			Return(&service.BetView{Detail: &models.BetDetail{Bet: sampleBet()}, Phase: models.PhaseOpen}, nil)

		rec, resp := api.as(t, 2, "user", http.MethodGet, "/api/bets/5", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var view betDetailView
		resp.decodeData(t, &view)
		assert.Equal(t, "open", view.Phase)
		assert.NotNil(t, view.Participants)
	})

	t.Run("list passes the query through", func(t *testing.T) {
		api := newTestAPI(t)
		api.bets.On("List", mock.Anything, models.BetFilter{Search: "derby", Phase: models.PhaseClosed, Page: 2, Limit: 5},
			service.Actor{UserID: 1, Role: models.RoleUser}).
			Return(&service.BetPage{
				Bets:       []*models.BetSummary{{Bet: sampleBet(), Phase: models.PhaseClosed}},
				Pagination: service.Pagination{Page: 2, Limit: 5, Total: 6, TotalPages: 2},
			}, nil)

		rec, resp := api.as(t, 1, "user", http.MethodGet, "/api/bets?search=derby&status=closed&page=2&limit=5", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var view betPageView
		resp.decodeData(t, &view)
		require.Len(t, view.Bets, 1)
		assert.Equal(t, "closed", view.Bets[0].Phase)
		assert.Equal(t, 6, view.Pagination.Total)
	})

	t.Run("invited uses defaults for malformed paging", func(t *testing.T) {
		api := newTestAPI(t)
		api.bets.On("ListInvited", mock.Anything, int64(2), 0, 0).
			Return(&service.BetPage{Pagination: service.Pagination{Page: 1, Limit: 10}}, nil)

		rec, resp := api.as(t, 2, "user", http.MethodGet, "/api/bets/invited?page=x", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var view betPageView
		resp.decodeData(t, &view)
		assert.Empty(t, view.Bets)
	})
}

func TestDisputes(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		api := newTestAPI(t)
		api.disputes.On("File", mock.Anything, int64(5), int64(2), "The score was wrong").
			Return(&models.Dispute{ID: 1, BetID: 5, UserID: 2, Reason: "The score was wrong", Status: models.DisputeStatusPending}, nil)

		rec, resp := api.as(t, 2, "user", http.MethodPost, "/api/bets/5/disputes", map[string]string{"reason": "The score was wrong"})

		require.Equal(t, http.StatusCreated, rec.Code)
		var view disputeView
		resp.decodeData(t, &view)
		assert.Equal(t, "pending", view.Status)
	})

	t.Run("second dispute conflicts", func(t *testing.T) {
		api := newTestAPI(t)
		api.disputes.On("File", mock.Anything, int64(5), int64(2), "again").
			Return(nil, &service.Error{Kind: service.KindConflict, Message: "You have already submitted a dispute for this bet."})

		rec, _ := api.as(t, 2, "user", http.MethodPost, "/api/bets/5/disputes", map[string]string{"reason": "again"})

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("list for bet and mine", func(t *testing.T) {
		api := newTestAPI(t)
		api.disputes.On("ListForBet", mock.Anything, int64(5), service.Actor{UserID: 1, Role: models.RoleUser}).
			Return([]*models.Dispute{{ID: 1, BetID: 5}, {ID: 2, BetID: 5}}, nil)
		api.disputes.On("ListMine", mock.Anything, int64(1)).Return([]*models.Dispute{}, nil)

		rec, resp := api.as(t, 1, "user", http.MethodGet, "/api/bets/5/disputes", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var views []disputeView
		resp.decodeData(t, &views)
		assert.Len(t, views, 2)

		rec, resp = api.as(t, 1, "user", http.MethodGet, "/api/disputes/mine", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp.decodeData(t, &views)
		assert.Empty(t, views)
	})
}
