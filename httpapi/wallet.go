package httpapi

import (
	"net/http"

	"wagerly/models"

	"github.com/shopspring/decimal"
)

type withdrawRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	ExternalRef string          `json:"external_ref,omitempty"`
}

type payoutAccountRequest struct {
	AccountRef         string `json:"account_ref"`
	OnboardingComplete bool   `json:"onboarding_complete"`
}

type reconciliationView struct {
	WalletID   int64  `json:"wallet_id"`
	Balance    string `json:"balance"`
	LedgerSum  string `json:"ledger_sum"`
	Consistent bool   `json:"consistent"`
}

// GET /api/wallet
func (h *handlers) getWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.svc.Wallets.GetBalance(r.Context(), actor(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Wallet retrieved successfully.", newWalletView(wallet))
}

// GET /api/wallet/transactions?type=&status=&search=&page=&limit=
func (h *handlers) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := pageParams(r)
	filter := models.TransactionFilter{
		Type:   models.TransactionType(q.Get("type")),
		Status: models.TransactionStatus(q.Get("status")),
		Search: q.Get("search"),
		Page:   page,
		Limit:  limit,
	}

	result, err := h.svc.Wallets.ListTransactions(r.Context(), actor(r).UserID, filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	view := transactionPageView{
		Transactions: make([]ledgerEntryView, 0, len(result.Entries)),
		Pagination:   result.Pagination,
	}
	for _, e := range result.Entries {
		view.Transactions = append(view.Transactions, newLedgerEntryView(e))
	}
	respondOK(w, http.StatusOK, "Transactions retrieved successfully.", view)
}

// POST /api/wallet/withdrawals
func (h *handlers) withdraw(w http.ResponseWriter, r *http.Request) {
	var body withdrawRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	entry, err := h.svc.Wallets.WithdrawInitiate(r.Context(), actor(r).UserID, body.Amount, body.ExternalRef)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, "Withdrawal initiated. Funds are held until the transfer settles.", newLedgerEntryView(entry))
}

// PUT /api/wallet/payout-account
func (h *handlers) linkPayoutAccount(w http.ResponseWriter, r *http.Request) {
	var body payoutAccountRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := h.svc.Wallets.LinkPayoutAccount(r.Context(), actor(r).UserID, body.AccountRef, body.OnboardingComplete); err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Payout account updated.", nil)
}

// GET /api/wallet/reconcile
func (h *handlers) reconcile(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Wallets.Reconcile(r.Context(), actor(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Wallet reconciled.", reconciliationView{
		WalletID:   rec.WalletID,
		Balance:    money(rec.Balance),
		LedgerSum:  money(rec.LedgerSum),
		Consistent: rec.Consistent(),
	})
}
