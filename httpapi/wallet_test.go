package httpapi

import (
	"net/http"
	"testing"

	"wagerly/models"
	"wagerly/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func decEq(expected string) interface{} {
	want := decimal.RequireFromString(expected)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func TestWallet(t *testing.T) {
	t.Run("balance", func(t *testing.T) {
		api := newTestAPI(t)
		api.wallets.On("GetBalance", mock.Anything, int64(2)).
			Return(&models.Wallet{ID: 20, UserID: 2, Balance: decimal.RequireFromString("12.5")}, nil)

		rec, resp := api.as(t, 2, "user", http.MethodGet, "/api/wallet", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var view walletView
		resp.decodeData(t, &view)
		assert.Equal(t, "12.50", view.Balance)
	})

	t.Run("transactions pass filters through", func(t *testing.T) {
		api := newTestAPI(t)
		filter := models.TransactionFilter{
			Type:   models.TransactionTypeWithdraw,
			Status: models.TransactionStatusPending,
			Search: "payout",
			Page:   1,
			Limit:  20,
		}
		ref := "wd-1"
		api.wallets.On("ListTransactions", mock.Anything, int64(2), filter).Return(&service.TransactionPage{
			Entries: []*models.LedgerEntry{{
				ID:           1,
				Type:         models.TransactionTypeWithdraw,
				Amount:       decimal.NewFromInt(-40),
				ExternalRef:  &ref,
				BalanceAfter: decimal.NewFromInt(60),
				Status:       models.TransactionStatusPending,
			}},
			Pagination: service.Pagination{Page: 1, Limit: 20, Total: 1, TotalPages: 1},
		}, nil)

		rec, resp := api.as(t, 2, "user", http.MethodGet, "/api/wallet/transactions?type=withdraw&status=pending&search=payout&page=1&limit=20", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var view transactionPageView
		resp.decodeData(t, &view)
		require.Len(t, view.Transactions, 1)
		assert.Equal(t, "-40.00", view.Transactions[0].Amount)
		assert.Equal(t, "wd-1", *view.Transactions[0].ExternalRef)
	})

	t.Run("withdraw", func(t *testing.T) {
		api := newTestAPI(t)
		api.wallets.On("WithdrawInitiate", mock.Anything, int64(2), decEq("40"), "").Return(&models.LedgerEntry{
			ID:           7,
			Type:         models.TransactionTypeWithdraw,
			Amount:       decimal.NewFromInt(-40),
			BalanceAfter: decimal.NewFromInt(60),
			Status:       models.TransactionStatusPending,
		}, nil)

		rec, resp := api.as(t, 2, "user", http.MethodPost, "/api/wallet/withdrawals", map[string]string{"amount": "40"})

		require.Equal(t, http.StatusCreated, rec.Code)
		var view ledgerEntryView
		resp.decodeData(t, &view)
		assert.Equal(t, "pending", view.Status)
	})

	t.Run("withdraw without onboarding", func(t *testing.T) {
		api := newTestAPI(t)
		api.wallets.On("WithdrawInitiate", mock.Anything, int64(2), decEq("40"), "").
			Return(nil, &service.Error{Kind: service.KindInvalidState, Message: "Payout account onboarding is not complete."})

		rec, resp := api.as(t, 2, "user", http.MethodPost, "/api/wallet/withdrawals", map[string]string{"amount": "40"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_state", resp.kind(t))
	})

	t.Run("payout account and reconcile", func(t *testing.T) {
		api := newTestAPI(t)
		api.wallets.On("LinkPayoutAccount", mock.Anything, int64(2), "acct_1", true).Return(nil)
		api.wallets.On("Reconcile", mock.Anything, int64(2)).Return(&service.Reconciliation{
			WalletID:  20,
			Balance:   decimal.NewFromInt(60),
			LedgerSum: decimal.NewFromInt(60),
		}, nil)

		rec, _ := api.as(t, 2, "user", http.MethodPut, "/api/wallet/payout-account", map[string]any{"account_ref": "acct_1", "onboarding_complete": true})
		require.Equal(t, http.StatusOK, rec.Code)

		rec, resp := api.as(t, 2, "user", http.MethodGet, "/api/wallet/reconcile", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var view reconciliationView
		resp.decodeData(t, &view)
		assert.True(t, view.Consistent)
	})
}

func TestPaymentCallbacks(t *testing.T) {
	secret := map[string]string{paymentSecretHeader: testPaymentSecret}

	t.Run("deposit", func(t *testing.T) {
		api := newTestAPI(t)
		api.wallets.On("ConfirmDeposit", mock.Anything, int64(2), decEq("100"), "dep-1").Return(&models.LedgerEntry{
			ID:           3,
			Type:         models.TransactionTypeDeposit,
			Amount:       decimal.NewFromInt(100),
			BalanceAfter: decimal.NewFromInt(100),
			Status:       models.TransactionStatusCompleted,
		}, nil)

		rec, resp := api.request(t, http.MethodPost, "/api/payments/deposits",
			map[string]any{"user_id": 2, "amount": "100", "external_ref": "dep-1"}, secret)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Success)
	})

	t.Run("bearer tokens are not accepted in place of the secret", func(t *testing.T) {
		api := newTestAPI(t)
		rec, _ := api.as(t, 2, "admin", http.MethodPost, "/api/payments/deposits",
			map[string]any{"user_id": 2, "amount": "100", "external_ref": "dep-1"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		api := newTestAPI(t)
		rec, _ := api.request(t, http.MethodPost, "/api/payments/withdrawals/settle",
			map[string]any{"external_ref": "wd-1", "succeeded": true},
			map[string]string{paymentSecretHeader: "guess"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("settle failure releases the hold", func(t *testing.T) {
		api := newTestAPI(t)
		api.wallets.On("SettleWithdrawal", mock.Anything, "wd-1", false).Return(&models.LedgerEntry{
			ID:           7,
			Type:         models.TransactionTypeWithdraw,
			Amount:       decimal.NewFromInt(-40),
			BalanceAfter: decimal.NewFromInt(60),
			Status:       models.TransactionStatusFailed,
		}, nil)

		rec, resp := api.request(t, http.MethodPost, "/api/payments/withdrawals/settle",
			map[string]any{"external_ref": "wd-1", "succeeded": false}, secret)

		require.Equal(t, http.StatusOK, rec.Code)
		var view ledgerEntryView
		resp.decodeData(t, &view)
		assert.Equal(t, "failed", view.Status)
	})

	t.Run("unknown withdrawal", func(t *testing.T) {
		api := newTestAPI(t)
		api.wallets.On("SettleWithdrawal", mock.Anything, "nope", true).
			Return(nil, &service.Error{Kind: service.KindNotFound, Message: "Withdrawal not found."})

		rec, _ := api.request(t, http.MethodPost, "/api/payments/withdrawals/settle",
			map[string]any{"external_ref": "nope", "succeeded": true}, secret)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
