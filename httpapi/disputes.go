package httpapi

import (
	"net/http"
)

type fileDisputeRequest struct {
	Reason string `json:"reason"`
}

// POST /api/bets/{betID}/disputes
func (h *handlers) fileDispute(w http.ResponseWriter, r *http.Request) {
	betID, ok := betIDParam(w, r)
	if !ok {
		return
	}
	var body fileDisputeRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	dispute, err := h.svc.Disputes.File(r.Context(), betID, actor(r).UserID, body.Reason)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, "Dispute submitted successfully.", newDisputeView(dispute))
}

// GET /api/bets/{betID}/disputes
func (h *handlers) listBetDisputes(w http.ResponseWriter, r *http.Request) {
	betID, ok := betIDParam(w, r)
	if !ok {
		return
	}
	disputes, err := h.svc.Disputes.ListForBet(r.Context(), betID, actor(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Disputes retrieved successfully.", newDisputeViews(disputes))
}

// GET /api/disputes/mine
func (h *handlers) listMyDisputes(w http.ResponseWriter, r *http.Request) {
	disputes, err := h.svc.Disputes.ListMine(r.Context(), actor(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Disputes retrieved successfully.", newDisputeViews(disputes))
}
