package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"wagerly/events"
	"wagerly/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	minBetOptions = 2
	maxBetOptions = 10
)

// CreateBetRequest carries everything needed to open a bet
type CreateBetRequest struct {
	OwnerID     int64
	Title       string
	Description string
	Question    string
	ImageRef    string
	StakeAmount decimal.Decimal
	Options     []string
	InviteeIDs  []int64
	Date        time.Time
	StartTime   models.ClockTime
	EndTime     models.ClockTime
}

// ParticipationResult is returned after a successful answer
type ParticipationResult struct {
	Participant *models.BetParticipant
	Entry       *models.LedgerEntry
	TotalPot    decimal.Decimal
}

// ResolutionResult is returned after a bet has been resolved
type ResolutionResult struct {
	Bet     *models.Bet
	Payout  *Payout
	Entries []*models.LedgerEntry
	Message string
}

// BetView is a bet detail together with its phase at read time
type BetView struct {
	Detail *models.BetDetail
	Phase  models.Phase
}

// BetPage is one page of bet summaries
type BetPage struct {
	Bets       []*models.BetSummary
	Pagination Pagination
}

// betService implements the BetService interface
type betService struct {
	uowFactory UnitOfWorkFactory
	ledger     *WalletLedger
	clock      Clock
	location   *time.Location
}

// NewBetService creates a new bet service. Betting windows are interpreted in location.
func NewBetService(uowFactory UnitOfWorkFactory, ledger *WalletLedger, clock Clock, location *time.Location) BetService {
	if location == nil {
		location = time.UTC
	}
	return &betService{
		uowFactory: uowFactory,
		ledger:     ledger,
		clock:      clock,
		location:   location,
	}
}

// Create validates and stores a new pending bet. The owner's balance is checked
// against the stake but nothing is escrowed until the owner participates.
func (s *betService) Create(ctx context.Context, req CreateBetRequest) (*BetView, error) {
	inviteeIDs, err := normalizeCreateRequest(&req)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, internal(err, "failed to begin transaction")
	}
	defer uow.Rollback()

	betRepo := uow.BetRepository()

	exists, err := betRepo.ExistsLiveTitle(ctx, req.OwnerID, req.Title)
	if err != nil {
		return nil, internal(err, "failed to check bet title")
	}
	if exists {
		return nil, conflict("A bet with this title already exists.")
	}

	existing, err := uow.UserRepository().ExistingIDs(ctx, inviteeIDs)
	if err != nil {
		return nil, internal(err, "failed to look up invited participants")
	}
	if len(existing) != len(inviteeIDs) {
		return nil, notFound("Some invited participants do not exist.")
	}

	wallet, err := uow.WalletRepository().GetByUserID(ctx, req.OwnerID)
	if err != nil {
		return nil, internal(err, "failed to get wallet of user %d", req.OwnerID)
	}
	if wallet == nil {
		return nil, notFound("Wallet not found.")
	}
	if !wallet.CanCover(req.StakeAmount) {
		return nil, insufficientFunds("Insufficient funds.")
	}

	bet := &models.Bet{
		OwnerID:     req.OwnerID,
		Title:       req.Title,
		Description: req.Description,
		Question:    req.Question,
		ImageRef:    req.ImageRef,
		StakeAmount: req.StakeAmount,
		TotalPot:    decimal.Zero,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      models.BetStatusPending,
	}
	if err := betRepo.Create(ctx, bet); err != nil {
		return nil, asDuplicate(err, "A bet with this title already exists.", "failed to create bet")
	}

	options, err := betRepo.CreateOptions(ctx, bet.ID, req.Options)
	if err != nil {
		return nil, internal(err, "failed to create options for bet %d", bet.ID)
	}

	invitations := make([]*models.BetInvitation, 0, len(inviteeIDs)+1)
	for _, id := range inviteeIDs {
		invitations = append(invitations, &models.BetInvitation{
			BetID:  bet.ID,
			UserID: id,
			Status: models.InvitationStatusNotConfirmed,
		})
	}
	invitations = append(invitations, &models.BetInvitation{
		BetID:  bet.ID,
		UserID: req.OwnerID,
		Status: models.InvitationStatusConfirmed,
	})
	if err := betRepo.AddInvitations(ctx, invitations); err != nil {
		return nil, internal(err, "failed to invite participants to bet %d", bet.ID)
	}

	uow.EventBus().Publish(events.BetCreatedEvent{
		BetID:       bet.ID,
		OwnerID:     bet.OwnerID,
		Title:       bet.Title,
		StakeAmount: bet.StakeAmount,
		InviteeIDs:  inviteeIDs,
	})

	if err := uow.Commit(); err != nil {
		return nil, internal(err, "failed to commit bet creation")
	}

	log.WithFields(log.Fields{
		"betID":    bet.ID,
		"ownerID":  bet.OwnerID,
		"stake":    bet.StakeAmount.StringFixed(models.MoneyPlaces),
		"options":  len(options),
		"invitees": len(inviteeIDs),
	}).Info("Bet created")

	return &BetView{
		Detail: &models.BetDetail{
			Bet:          bet,
			Options:      options,
			Invitations:  invitations,
			Participants: []*models.BetParticipant{},
		},
		Phase: bet.PhaseAt(s.clock.Now(), s.location),
	}, nil
}

// Participate records the user's answer and escrows the stake. The bet row is
// locked for the whole unit so two answers on one bet cannot both pass the
// duplicate check, and the phase is evaluated after the lock is held.
func (s *betService) Participate(ctx context.Context, betID, userID, optionID int64) (*ParticipationResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, internal(err, "failed to begin transaction")
	}
	defer uow.Rollback()

	betRepo := uow.BetRepository()

	detail, err := betRepo.GetDetailForUpdate(ctx, betID)
	if err != nil {
		return nil, internal(err, "failed to lock bet %d", betID)
	}
	if detail == nil {
		return nil, notFound("Bet not found.")
	}
	bet := detail.Bet

	if detail.Invitation(userID) == nil {
		return nil, forbidden("You are not invited to this bet.")
	}

	if !bet.IsPending() {
		return nil, invalidState(fmt.Sprintf("Cannot participate. Bet is %s.", bet.Status))
	}

	switch bet.PhaseAt(s.clock.Now(), s.location) {
	case models.PhaseUpcoming:
		return nil, invalidState("This bet has not started yet. You can participate once it is open.")
	case models.PhaseClosed:
		return nil, invalidState("This bet has already ended. Participation is no longer allowed.")
	}

	if detail.Participant(userID) != nil {
		return nil, conflict("You have already answered this bet.")
	}

	if detail.Option(optionID) == nil {
		return nil, notFound("Invalid option selected.")
	}

	entry, err := s.ledger.Debit(ctx, uow, LedgerRequest{
		UserID:      userID,
		Amount:      bet.StakeAmount,
		Type:        models.TransactionTypeBet,
		BetID:       &bet.ID,
		Description: "Bet participation: " + bet.Title,
		Metadata: map[string]any{
			"option_id": optionID,
		},
	})
	if err != nil {
		return nil, asServiceError(err, "failed to debit stake")
	}

	participant := &models.BetParticipant{
		BetID:    bet.ID,
		UserID:   userID,
		OptionID: optionID,
		IsWinner: false,
		Reward:   decimal.Zero,
	}
	if err := betRepo.AddParticipant(ctx, participant); err != nil {
		return nil, asDuplicate(err, "You have already answered this bet.", "failed to add participant to bet %d", bet.ID)
	}

	if err := betRepo.ConfirmInvitation(ctx, bet.ID, userID); err != nil {
		return nil, internal(err, "failed to confirm invitation on bet %d", bet.ID)
	}

	totalPot, err := betRepo.AddToPot(ctx, bet.ID, bet.StakeAmount)
	if err != nil {
		return nil, internal(err, "failed to add stake to pot of bet %d", bet.ID)
	}

	uow.EventBus().Publish(events.BetParticipatedEvent{
		BetID:    bet.ID,
		OwnerID:  bet.OwnerID,
		UserID:   userID,
		OptionID: optionID,
		Title:    bet.Title,
		TotalPot: totalPot,
	})

	if err := uow.Commit(); err != nil {
		return nil, internal(err, "failed to commit participation")
	}

	log.WithFields(log.Fields{
		"betID":    bet.ID,
		"userID":   userID,
		"optionID": optionID,
		"totalPot": totalPot.StringFixed(models.MoneyPlaces),
	}).Info("Bet answered")

	return &ParticipationResult{
		Participant: participant,
		Entry:       entry,
		TotalPot:    totalPot,
	}, nil
}

// Resolve sets the correct option of a closed bet and pays every winner from
// the pot. All credits share one unit of work: if any winner cannot be paid
// nothing is paid and the bet stays pending.
func (s *betService) Resolve(ctx context.Context, betID, correctOptionID int64, actor Actor) (*ResolutionResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, internal(err, "failed to begin transaction")
	}
	defer uow.Rollback()

	betRepo := uow.BetRepository()

	detail, err := betRepo.GetDetailForUpdate(ctx, betID)
	if err != nil {
		return nil, internal(err, "failed to lock bet %d", betID)
	}
	if detail == nil {
		return nil, notFound("Bet not found.")
	}
	bet := detail.Bet

	if bet.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, forbidden("Only the bet owner or an admin can set the winner.")
	}

	if !bet.IsPending() {
		return nil, invalidState(fmt.Sprintf("Cannot set winner. Bet is %s.", bet.Status))
	}

	if bet.PhaseAt(s.clock.Now(), s.location) != models.PhaseClosed {
		return nil, invalidState("Bet is not closed yet. Winner can be set only after the bet ends.")
	}

	if detail.Option(correctOptionID) == nil {
		return nil, notFound("Invalid option selected.")
	}

	payout := ResolveWinners(detail.Participants, correctOptionID, bet.TotalPot)

	entries := make([]*models.LedgerEntry, 0, len(payout.Winners))
	if payout.RewardPerWinner.IsPositive() {
		for _, winner := range payout.Winners {
			entry, err := s.ledger.Credit(ctx, uow, LedgerRequest{
				UserID:      winner.UserID,
				Amount:      winner.Reward,
				Type:        models.TransactionTypeWin,
				BetID:       &bet.ID,
				Description: "Bet reward from: " + bet.Title,
			})
			if err != nil {
				log.WithFields(log.Fields{
					"betID":  bet.ID,
					"userID": winner.UserID,
					"error":  err,
				}).Warn("Aborting resolution, winner could not be paid")
				return nil, asServiceError(err, "failed to credit winner %d", winner.UserID)
			}
			entries = append(entries, entry)
		}
	}

	if err := betRepo.UpdateParticipantPayouts(ctx, detail.Participants); err != nil {
		return nil, internal(err, "failed to store payouts of bet %d", bet.ID)
	}

	resolvedAt := s.clock.Now()
	if err := betRepo.MarkResolved(ctx, bet.ID, correctOptionID, resolvedAt); err != nil {
		return nil, internal(err, "failed to mark bet %d resolved", bet.ID)
	}
	bet.Status = models.BetStatusResolved
	bet.CorrectOptionID = &correctOptionID
	bet.ResolvedAt = &resolvedAt

	uow.EventBus().Publish(events.BetResolvedEvent{
		BetID:           bet.ID,
		Title:           bet.Title,
		CorrectOptionID: correctOptionID,
		TotalPot:        bet.TotalPot,
		RewardPerWinner: payout.RewardPerWinner,
		WinnerIDs:       participantIDs(payout.Winners),
		LoserIDs:        participantIDs(payout.Losers),
	})

	if err := uow.Commit(); err != nil {
		return nil, internal(err, "failed to commit resolution")
	}

	message := "Winner set successfully and prizes distributed."
	if len(payout.Winners) == 0 {
		message = "Winner set, but no participants selected the correct option."
	}

	log.WithFields(log.Fields{
		"betID":           bet.ID,
		"correctOptionID": correctOptionID,
		"winners":         len(payout.Winners),
		"rewardPerWinner": payout.RewardPerWinner.StringFixed(models.MoneyPlaces),
		"retained":        payout.Retained.StringFixed(models.MoneyPlaces),
	}).Info("Bet resolved")

	return &ResolutionResult{
		Bet:     bet,
		Payout:  payout,
		Entries: entries,
		Message: message,
	}, nil
}

func (s *betService) Get(ctx context.Context, betID int64, actor Actor) (*BetView, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, internal(err, "failed to begin transaction")
	}
	defer uow.Rollback()

	detail, err := uow.BetRepository().GetDetail(ctx, betID)
	if err != nil {
		return nil, internal(err, "failed to get bet %d", betID)
	}
	if detail == nil {
		return nil, notFound("Bet not found.")
	}

	if detail.Bet.OwnerID != actor.UserID && !actor.IsAdmin() && detail.Invitation(actor.UserID) == nil {
		return nil, forbidden("You do not have access to this bet.")
	}

	return &BetView{
		Detail: detail,
		Phase:  detail.Bet.PhaseAt(s.clock.Now(), s.location),
	}, nil
}

func (s *betService) List(ctx context.Context, filter models.BetFilter, actor Actor) (*BetPage, error) {
	if filter.Phase != "" {
		if _, ok := models.ParsePhase(string(filter.Phase)); !ok {
			return nil, validation(fmt.Sprintf("Unknown bet status %q.", filter.Phase))
		}
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)
	if !actor.IsAdmin() {
		ownerID := actor.UserID
		filter.OwnerID = &ownerID
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, internal(err, "failed to begin transaction")
	}
	defer uow.Rollback()

	now := s.clock.Now()
	bets, total, err := uow.BetRepository().List(ctx, filter, now, s.location)
	if err != nil {
		return nil, internal(err, "failed to list bets")
	}

	return &BetPage{
		Bets:       s.summarize(bets, now),
		Pagination: newPagination(filter.Page, filter.Limit, total),
	}, nil
}

func (s *betService) ListInvited(ctx context.Context, userID int64, page, limit int) (*BetPage, error) {
	page, limit = normalizePage(page, limit)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, internal(err, "failed to begin transaction")
	}
	defer uow.Rollback()

	bets, total, err := uow.BetRepository().ListInvited(ctx, userID, page, limit)
	if err != nil {
		return nil, internal(err, "failed to list invited bets of user %d", userID)
	}

	return &BetPage{
		Bets:       s.summarize(bets, s.clock.Now()),
		Pagination: newPagination(page, limit, total),
	}, nil
}

func (s *betService) summarize(bets []*models.Bet, now time.Time) []*models.BetSummary {
	summaries := make([]*models.BetSummary, 0, len(bets))
	for _, bet := range bets {
		summaries = append(summaries, &models.BetSummary{
			Bet:   bet,
			Phase: bet.PhaseAt(now, s.location),
		})
	}
	return summaries
}

// normalizeCreateRequest trims and checks the request in place and returns the
// de-duplicated invitee IDs.
func normalizeCreateRequest(req *CreateBetRequest) ([]int64, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Question = strings.TrimSpace(req.Question)
	req.ImageRef = strings.TrimSpace(req.ImageRef)

	switch {
	case req.Title == "":
		return nil, validation("Title is required.")
	case req.Question == "":
		return nil, validation("Question is required.")
	case req.ImageRef == "":
		return nil, validation("Image is required.")
	case req.StakeAmount.LessThan(decimal.NewFromInt(1)):
		return nil, validation("Amount must be at least 1.")
	case !models.HasMoneyPrecision(req.StakeAmount):
		return nil, validation("Amount cannot have more than two decimal places.")
	case req.Date.IsZero():
		return nil, validation("Date is required.")
	case !req.StartTime.Before(req.EndTime):
		return nil, validation("Start time must be before end time.")
	}

	options := make([]string, 0, len(req.Options))
	seen := make(map[string]bool, len(req.Options))
	for _, opt := range req.Options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			return nil, validation("Options cannot be empty.")
		}
		key := strings.ToLower(opt)
		if seen[key] {
			return nil, validation(fmt.Sprintf("Option %q is listed twice.", opt))
		}
		seen[key] = true
		options = append(options, opt)
	}
	if len(options) < minBetOptions || len(options) > maxBetOptions {
		return nil, validation(fmt.Sprintf("A bet needs between %d and %d options.", minBetOptions, maxBetOptions))
	}
	req.Options = options

	invitees := make([]int64, 0, len(req.InviteeIDs))
	seenUsers := make(map[int64]bool, len(req.InviteeIDs))
	for _, id := range req.InviteeIDs {
		if id == req.OwnerID {
			return nil, validation("You cannot invite yourself.")
		}
		if !seenUsers[id] {
			seenUsers[id] = true
			invitees = append(invitees, id)
		}
	}
	if len(invitees) == 0 {
		return nil, validation("At least one participant must be invited.")
	}
	sort.Slice(invitees, func(i, j int) bool { return invitees[i] < invitees[j] })

	return invitees, nil
}

func participantIDs(participants []*models.BetParticipant) []int64 {
	ids := make([]int64, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

// asDuplicate maps a unique-constraint failure to Conflict and wraps anything else as internal
func asDuplicate(err error, conflictMessage string, format string, args ...any) error {
	if errors.Is(err, ErrDuplicate) {
		return conflict(conflictMessage)
	}
	return internal(err, format, args...)
}
