package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"wagerly/models"
	"wagerly/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createBetRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Question    string          `json:"question"`
	ImageRef    string          `json:"image_ref"`
	StakeAmount decimal.Decimal `json:"stake_amount"`
	Options     []string        `json:"options"`
	InviteeIDs  []int64         `json:"invitee_ids"`
	Date        string          `json:"date"`
	StartTime   string          `json:"start_time"`
	EndTime     string          `json:"end_time"`
}

type participateRequest struct {
	OptionID int64 `json:"option_id"`
}

type resolveRequest struct {
	CorrectOptionID int64 `json:"correct_option_id"`
}

type participationView struct {
	Participant participantView `json:"participant"`
	Transaction ledgerEntryView `json:"transaction"`
	TotalPot    string          `json:"total_pot"`
}

type resolutionView struct {
	Bet             betView           `json:"bet"`
	RewardPerWinner string            `json:"reward_per_winner"`
	Retained        string            `json:"retained"`
	Winners         []participantView `json:"winners"`
	Losers          []participantView `json:"losers"`
}

// POST /api/bets
func (h *handlers) createBet(w http.ResponseWriter, r *http.Request) {
	var body createBetRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	req := service.CreateBetRequest{
		OwnerID:     actor(r).UserID,
		Title:       body.Title,
		Description: body.Description,
		Question:    body.Question,
		ImageRef:    body.ImageRef,
		StakeAmount: body.StakeAmount,
		Options:     body.Options,
		InviteeIDs:  body.InviteeIDs,
	}

	if body.Date != "" {
		date, err := time.Parse(dateLayout, body.Date)
		if err != nil {
			badRequest(w, "Date must be formatted as YYYY-MM-DD.")
			return
		}
		req.Date = date
	}
	var err error
	if req.StartTime, err = models.ParseClockTime(body.StartTime); err != nil {
		badRequest(w, "Start time must be formatted as HH:MM.")
		return
	}
	if req.EndTime, err = models.ParseClockTime(body.EndTime); err != nil {
		badRequest(w, "End time must be formatted as HH:MM.")
		return
	}

	view, err := h.svc.Bets.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, "Bet created successfully.", newBetDetailView(view.Detail, view.Phase))
}

// GET /api/bets?search=&status=&page=&limit=
func (h *handlers) listBets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := pageParams(r)
	filter := models.BetFilter{
		Search: q.Get("search"),
		Phase:  models.Phase(q.Get("status")),
		Page:   page,
		Limit:  limit,
	}

	result, err := h.svc.Bets.List(r.Context(), filter, actor(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Bets retrieved successfully.", newBetPageView(result))
}

// GET /api/bets/invited
func (h *handlers) listInvitedBets(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	result, err := h.svc.Bets.ListInvited(r.Context(), actor(r).UserID, page, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Invited bets retrieved successfully.", newBetPageView(result))
}

// GET /api/bets/{betID}
func (h *handlers) getBet(w http.ResponseWriter, r *http.Request) {
	betID, ok := betIDParam(w, r)
	if !ok {
		return
	}
	view, err := h.svc.Bets.Get(r.Context(), betID, actor(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Bet retrieved successfully.", newBetDetailView(view.Detail, view.Phase))
}

// POST /api/bets/{betID}/participate
func (h *handlers) participate(w http.ResponseWriter, r *http.Request) {
	betID, ok := betIDParam(w, r)
	if !ok {
		return
	}
	var body participateRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.OptionID <= 0 {
		badRequest(w, "option_id is required.")
		return
	}

	result, err := h.svc.Bets.Participate(r.Context(), betID, actor(r).UserID, body.OptionID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Bet participation successful.", participationView{
		Participant: newParticipantView(result.Participant),
		Transaction: newLedgerEntryView(result.Entry),
		TotalPot:    money(result.TotalPot),
	})
}

// POST /api/bets/{betID}/resolve
func (h *handlers) resolveBet(w http.ResponseWriter, r *http.Request) {
	betID, ok := betIDParam(w, r)
	if !ok {
		return
	}
	var body resolveRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.CorrectOptionID <= 0 {
		badRequest(w, "correct_option_id is required.")
		return
	}

	result, err := h.svc.Bets.Resolve(r.Context(), betID, body.CorrectOptionID, actor(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	view := resolutionView{
		Bet:             newBetView(result.Bet, models.PhaseResolved),
		RewardPerWinner: money(result.Payout.RewardPerWinner),
		Retained:        money(result.Payout.Retained),
		Winners:         make([]participantView, 0, len(result.Payout.Winners)),
		Losers:          make([]participantView, 0, len(result.Payout.Losers)),
	}
	for _, p := range result.Payout.Winners {
		view.Winners = append(view.Winners, newParticipantView(p))
	}
	for _, p := range result.Payout.Losers {
		view.Losers = append(view.Losers, newParticipantView(p))
	}
	respondOK(w, http.StatusOK, result.Message, view)
}

func betIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	betID, err := strconv.ParseInt(chi.URLParam(r, "betID"), 10, 64)
	if err != nil || betID <= 0 {
		badRequest(w, "Invalid bet ID.")
		return 0, false
	}
	return betID, true
}

// pageParams reads page and limit; malformed values fall back to the service defaults
func pageParams(r *http.Request) (int, int) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return page, limit
}
