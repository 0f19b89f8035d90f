package httpapi

import (
	"time"

	"wagerly/models"
	"wagerly/service"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Amounts are rendered with two fixed decimals so clients never see "45" next to "45.5"
func money(d decimal.Decimal) string {
	return d.StringFixed(models.MoneyPlaces)
}

type userView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserView(u *models.User) userView {
	return userView{ID: u.ID, Username: u.Username, Role: string(u.Role), CreatedAt: u.CreatedAt}
}

type betView struct {
	ID              int64      `json:"id"`
	OwnerID         int64      `json:"owner_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Question        string     `json:"question"`
	ImageRef        string     `json:"image_ref"`
	StakeAmount     string     `json:"stake_amount"`
	TotalPot        string     `json:"total_pot"`
	Date            string     `json:"date"`
	StartTime       string     `json:"start_time"`
	EndTime         string     `json:"end_time"`
	Status          string     `json:"status"`
	Phase           string     `json:"phase"`
	CorrectOptionID *int64     `json:"correct_option_id,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func newBetView(b *models.Bet, phase models.Phase) betView {
	return betView{
		ID:              b.ID,
		OwnerID:         b.OwnerID,
		Title:           b.Title,
		Description:     b.Description,
		Question:        b.Question,
		ImageRef:        b.ImageRef,
		StakeAmount:     money(b.StakeAmount),
		TotalPot:        money(b.TotalPot),
		Date:            b.Date.Format(dateLayout),
		StartTime:       b.StartTime.String(),
		EndTime:         b.EndTime.String(),
		Status:          string(b.Status),
		Phase:           string(phase),
		CorrectOptionID: b.CorrectOptionID,
		ResolvedAt:      b.ResolvedAt,
		CreatedAt:       b.CreatedAt,
	}
}

type optionView struct {
	ID       int64  `json:"id"`
	Position int16  `json:"position"`
	Label    string `json:"label"`
}

type invitationView struct {
	UserID int64  `json:"user_id"`
	Status string `json:"status"`
}

type participantView struct {
	UserID   int64  `json:"user_id"`
	OptionID int64  `json:"option_id"`
	IsWinner bool   `json:"is_winner"`
	Reward   string `json:"reward"`
}

func newParticipantView(p *models.BetParticipant) participantView {
	return participantView{UserID: p.UserID, OptionID: p.OptionID, IsWinner: p.IsWinner, Reward: money(p.Reward)}
}

type betDetailView struct {
	betView
	Options      []optionView      `json:"options"`
	Invitations  []invitationView  `json:"invitations"`
	Participants []participantView `json:"participants"`
}

func newBetDetailView(d *models.BetDetail, phase models.Phase) betDetailView {
	view := betDetailView{
		betView:      newBetView(d.Bet, phase),
		Options:      make([]optionView, 0, len(d.Options)),
		Invitations:  make([]invitationView, 0, len(d.Invitations)),
		Participants: make([]participantView, 0, len(d.Participants)),
	}
	for _, o := range d.Options {
		view.Options = append(view.Options, optionView{ID: o.ID, Position: o.Position, Label: o.Label})
	}
	for _, inv := range d.Invitations {
		view.Invitations = append(view.Invitations, invitationView{UserID: inv.UserID, Status: string(inv.Status)})
	}
	for _, p := range d.Participants {
		view.Participants = append(view.Participants, newParticipantView(p))
	}
	return view
}

type betPageView struct {
	Bets       []betView          `json:"bets"`
	Pagination service.Pagination `json:"pagination"`
}

func newBetPageView(page *service.BetPage) betPageView {
	view := betPageView{Bets: make([]betView, 0, len(page.Bets)), Pagination: page.Pagination}
	for _, s := range page.Bets {
		view.Bets = append(view.Bets, newBetView(s.Bet, s.Phase))
	}
	return view
}

type walletView struct {
	ID                       int64     `json:"id"`
	UserID                   int64     `json:"user_id"`
	Balance                  string    `json:"balance"`
	PayoutAccountRef         *string   `json:"payout_account_ref,omitempty"`
	PayoutOnboardingComplete bool      `json:"payout_onboarding_complete"`
	UpdatedAt                time.Time `json:"updated_at"`
}

func newWalletView(w *models.Wallet) walletView {
	return walletView{
		ID:                       w.ID,
		UserID:                   w.UserID,
		Balance:                  money(w.Balance),
		PayoutAccountRef:         w.PayoutAccountRef,
		PayoutOnboardingComplete: w.PayoutOnboardingComplete,
		UpdatedAt:                w.UpdatedAt,
	}
}

type ledgerEntryView struct {
	ID           int64          `json:"id"`
	Type         string         `json:"type"`
	Amount       string         `json:"amount"`
	BetID        *int64         `json:"bet_id,omitempty"`
	ExternalRef  *string        `json:"external_ref,omitempty"`
	BalanceAfter string         `json:"balance_after"`
	Status       string         `json:"status"`
	Description  string         `json:"description"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func newLedgerEntryView(e *models.LedgerEntry) ledgerEntryView {
	return ledgerEntryView{
		ID:           e.ID,
		Type:         string(e.Type),
		Amount:       money(e.Amount),
		BetID:        e.BetID,
		ExternalRef:  e.ExternalRef,
		BalanceAfter: money(e.BalanceAfter),
		Status:       string(e.Status),
		Description:  e.Description,
		Metadata:     e.Metadata,
		CreatedAt:    e.CreatedAt,
	}
}

type transactionPageView struct {
	Transactions []ledgerEntryView  `json:"transactions"`
	Pagination   service.Pagination `json:"pagination"`
}

type disputeView struct {
	ID        int64     `json:"id"`
	BetID     int64     `json:"bet_id"`
	UserID    int64     `json:"user_id"`
	Reason    string    `json:"reason"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func newDisputeView(d *models.Dispute) disputeView {
	return disputeView{ID: d.ID, BetID: d.BetID, UserID: d.UserID, Reason: d.Reason, Status: string(d.Status), CreatedAt: d.CreatedAt}
}

func newDisputeViews(disputes []*models.Dispute) []disputeView {
	views := make([]disputeView, 0, len(disputes))
	for _, d := range disputes {
		views = append(views, newDisputeView(d))
	}
	return views
}
