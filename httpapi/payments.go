package httpapi

import (
	"net/http"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Callbacks from the payment gateway. The gateway retries on any non-2xx
// answer, so both operations are idempotent on the external reference.

type depositRequest struct {
	UserID      int64           `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	ExternalRef string          `json:"external_ref"`
}

type settleRequest struct {
	ExternalRef string `json:"external_ref"`
	Succeeded   bool   `json:"succeeded"`
}

// POST /api/payments/deposits
func (h *handlers) confirmDeposit(w http.ResponseWriter, r *http.Request) {
	var body depositRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.UserID <= 0 {
		badRequest(w, "user_id is required.")
		return
	}

	entry, err := h.svc.Wallets.ConfirmDeposit(r.Context(), body.UserID, body.Amount, body.ExternalRef)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.WithFields(log.Fields{
		"userID":      body.UserID,
		"externalRef": body.ExternalRef,
		"entryID":     entry.ID,
	}).Debug("Deposit callback handled")
	respondOK(w, http.StatusOK, "Deposit confirmed.", newLedgerEntryView(entry))
}

// POST /api/payments/withdrawals/settle
func (h *handlers) settleWithdrawal(w http.ResponseWriter, r *http.Request) {
	var body settleRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	entry, err := h.svc.Wallets.SettleWithdrawal(r.Context(), body.ExternalRef, body.Succeeded)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Withdrawal settled.", newLedgerEntryView(entry))
}
