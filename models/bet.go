package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BetStatus is the stored lifecycle status of a bet
type BetStatus string

const (
	BetStatusPending   BetStatus = "pending"
	BetStatusResolved  BetStatus = "resolved"
	BetStatusCancelled BetStatus = "cancelled"
)

// InvitationStatus records whether an invitee has answered
type InvitationStatus string

const (
	InvitationStatusNotConfirmed InvitationStatus = "not_confirmed"
	InvitationStatusConfirmed    InvitationStatus = "confirmed"
)

// Bet is a time-boxed wager created by an owner for a set of invited users
type Bet struct {
	ID              int64           `db:"id"`
	OwnerID         int64           `db:"owner_id"`
	Title           string          `db:"title"`
	Description     string          `db:"description"`
	Question        string          `db:"question"`
	ImageRef        string          `db:"image_ref"`
	StakeAmount     decimal.Decimal `db:"stake_amount"`
	TotalPot        decimal.Decimal `db:"total_pot"`
	Date            time.Time       `db:"bet_date"` // Only the calendar day is meaningful
	StartTime       ClockTime       `db:"start_time"`
	EndTime         ClockTime       `db:"end_time"`
	Status          BetStatus       `db:"status"`
	CorrectOptionID *int64          `db:"correct_option_id"`
	ResolvedAt      *time.Time      `db:"resolved_at"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// PhaseAt evaluates the bet's phase at now
func (b *Bet) PhaseAt(now time.Time, loc *time.Location) Phase {
	return EvaluatePhase(b.Status, b.Date, b.StartTime, b.EndTime, now, loc)
}

// IsPending checks if the bet still accepts lifecycle changes
func (b *Bet) IsPending() bool {
	return b.Status == BetStatusPending
}

// IsResolved checks if the bet has been resolved
func (b *Bet) IsResolved() bool {
	return b.Status == BetStatusResolved
}

// BetOption is one of the ordered choices of a bet
type BetOption struct {
	ID       int64  `db:"id"`
	BetID    int64  `db:"bet_id"`
	Position int16  `db:"position"`
	Label    string `db:"label"`
}

// BetInvitation links an invited user to a bet
type BetInvitation struct {
	BetID     int64            `db:"bet_id"`
	UserID    int64            `db:"user_id"`
	Status    InvitationStatus `db:"status"`
	CreatedAt time.Time        `db:"created_at"`
}

// BetParticipant is a confirmed answer with its stake already escrowed in the pot
type BetParticipant struct {
	BetID     int64           `db:"bet_id"`
	UserID    int64           `db:"user_id"`
	OptionID  int64           `db:"option_id"`
	IsWinner  bool            `db:"is_winner"`
	Reward    decimal.Decimal `db:"reward"`
	CreatedAt time.Time       `db:"created_at"`
}

// BetDetail combines a bet with its options, invitations and participants
type BetDetail struct {
	Bet          *Bet
	Options      []*BetOption
	Invitations  []*BetInvitation
	Participants []*BetParticipant
}

// Option returns the option with the given id, or nil
func (d *BetDetail) Option(optionID int64) *BetOption {
	for _, opt := range d.Options {
		if opt.ID == optionID {
			return opt
		}
	}
	return nil
}

// Invitation returns the user's invitation, or nil
func (d *BetDetail) Invitation(userID int64) *BetInvitation {
	for _, inv := range d.Invitations {
		if inv.UserID == userID {
			return inv
		}
	}
	return nil
}

// Participant returns the user's participation, or nil
func (d *BetDetail) Participant(userID int64) *BetParticipant {
	for _, p := range d.Participants {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// BetFilter narrows bet listings. Phase accepts any Phase value.
type BetFilter struct {
	OwnerID *int64 // nil lists every owner
	Search  string // Matched against title and question
	Phase   Phase
	Page    int
	Limit   int
}

// BetSummary is a bet together with the phase observed when it was read
type BetSummary struct {
	Bet   *Bet
	Phase Phase
}
