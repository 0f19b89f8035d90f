package service

import (
	"context"
	"strings"

	"wagerly/events"
	"wagerly/models"

	log "github.com/sirupsen/logrus"
)

const maxDisputeReasonLength = 2000

// disputeService implements the DisputeService interface
type disputeService struct {
	uowFactory UnitOfWorkFactory
}

// NewDisputeService creates a new dispute service
func NewDisputeService(uowFactory UnitOfWorkFactory) DisputeService {
	return &disputeService{uowFactory: uowFactory}
}

// File records a pending dispute. Only resolved bets can be disputed, and each
// invited user may dispute a bet once; the unique index backs the check below.
func (s *disputeService) File(ctx context.Context, betID, userID int64, reason string) (*models.Dispute, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validation("Reason is required.")
	}
	if len(reason) > maxDisputeReasonLength {
		return nil, validation("Reason is too long.")
	}

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

	if !detail.Bet.IsResolved() {
		return nil, invalidState("Disputes can only be raised for resolved bets.")
	}

	if detail.Invitation(userID) == nil {
		return nil, forbidden("Only invited participants can dispute this bet.")
	}

	existing, err := uow.DisputeRepository().GetByBetAndUser(ctx, betID, userID)
	if err != nil {
		return nil, internal(err, "failed to check existing dispute")
	}
	if existing != nil {
		return nil, conflict("You have already raised a dispute for this bet.")
	}

	dispute := &models.Dispute{
		BetID:  betID,
		UserID: userID,
		Reason: reason,
		Status: models.DisputeStatusPending,
	}
	if err := uow.DisputeRepository().Create(ctx, dispute); err != nil {
		return nil, asDuplicate(err, "You have already raised a dispute for this bet.", "failed to create dispute on bet %d", betID)
	}

	uow.EventBus().Publish(events.DisputeFiledEvent{
		DisputeID: dispute.ID,
		BetID:     betID,
		OwnerID:   detail.Bet.OwnerID,
		UserID:    userID,
		Reason:    reason,
	})

	if err := uow.Commit(); err != nil {
		return nil, internal(err, "failed to commit dispute")
	}

	log.WithFields(log.Fields{
		"disputeID": dispute.ID,
		"betID":     betID,
		"userID":    userID,
	}).Info("Dispute filed")

	return dispute, nil
}

func (s *disputeService) ListForBet(ctx context.Context, betID int64, actor Actor) ([]*models.Dispute, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, internal(err, "failed to begin transaction")
	}
	defer uow.Rollback()

	bet, err := uow.BetRepository().GetByID(ctx, betID)
	if err != nil {
		return nil, internal(err, "failed to get bet %d", betID)
	}
	if bet == nil {
		return nil, notFound("Bet not found.")
	}
	if bet.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, forbidden("Only the bet owner or an admin can view its disputes.")
	}

	disputes, err := uow.DisputeRepository().ListByBet(ctx, betID)
	if err != nil {
		return nil, internal(err, "failed to list disputes of bet %d", betID)
	}
	return disputes, nil
}

func (s *disputeService) ListMine(ctx context.Context, userID int64) ([]*models.Dispute, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, internal(err, "failed to begin transaction")
	}
	defer uow.Rollback()

	disputes, err := uow.DisputeRepository().ListByUser(ctx, userID)
	if err != nil {
		return nil, internal(err, "failed to list disputes of user %d", userID)
	}
	return disputes, nil
}
