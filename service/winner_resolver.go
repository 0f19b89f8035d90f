package service

import (
	"sort"

	"wagerly/models"

	"github.com/shopspring/decimal"
)

// Payout is the outcome of resolving a bet's participants against the correct option
type Payout struct {
	CorrectOptionID int64
	Winners         []*models.BetParticipant
	Losers          []*models.BetParticipant
	RewardPerWinner decimal.Decimal
	TotalPaid       decimal.Decimal
	// Retained is the part of the pot nobody receives: the whole pot when there
	// are no winners, otherwise the rounding residue.
	Retained decimal.Decimal
}

// ResolveWinners splits participants into winners and losers and sets IsWinner
// and Reward on each of them. Every winner receives the same reward: the pot
// divided by the winner count, rounded half up to cents. If rounding up would
// pay out more than the pot, the reward is rounded down instead. With no
// winners every reward is zero and the pot is retained.
//
// It performs no I/O; participants are modified in place and returned sorted
// by user ID.
func ResolveWinners(participants []*models.BetParticipant, correctOptionID int64, totalPot decimal.Decimal) *Payout {
	payout := &Payout{
		CorrectOptionID: correctOptionID,
		RewardPerWinner: decimal.Zero,
		TotalPaid:       decimal.Zero,
	}

	for _, p := range participants {
		p.IsWinner = p.OptionID == correctOptionID
		p.Reward = decimal.Zero
		if p.IsWinner {
			payout.Winners = append(payout.Winners, p)
		} else {
			payout.Losers = append(payout.Losers, p)
		}
	}

	sortByUser(payout.Winners)
	sortByUser(payout.Losers)

	if len(payout.Winners) == 0 {
		payout.Retained = totalPot
		return payout
	}

	count := decimal.NewFromInt(int64(len(payout.Winners)))
	share := totalPot.Div(count)
	reward := models.RoundMoney(share)
	if reward.Mul(count).GreaterThan(totalPot) {
		reward = share.Truncate(models.MoneyPlaces)
	}

	for _, w := range payout.Winners {
		w.Reward = reward
	}

	payout.RewardPerWinner = reward
	payout.TotalPaid = reward.Mul(count)
	payout.Retained = totalPot.Sub(payout.TotalPaid)
	return payout
}

// sortByUser orders participants so wallet locks are always taken in the same order
func sortByUser(participants []*models.BetParticipant) {
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].UserID < participants[j].UserID
	})
}
