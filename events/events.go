package events

import (
	"context"
	"sync"

	"wagerly/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange     EventType = "balance_change"
	EventTypeBetCreated        EventType = "bet_created"
	EventTypeBetParticipated   EventType = "bet_participated"
	EventTypeBetResolved       EventType = "bet_resolved"
	EventTypeDisputeFiled      EventType = "dispute_filed"
	EventTypeWithdrawalSettled EventType = "withdrawal_settled"
)

// AllEventTypes lists every event the core emits, used by sinks that forward everything
var AllEventTypes = []EventType{
	EventTypeBalanceChange,
	EventTypeBetCreated,
	EventTypeBetParticipated,
	EventTypeBetResolved,
	EventTypeDisputeFiled,
	EventTypeWithdrawalSettled,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent is emitted for every ledger entry written
type BalanceChangeEvent struct {
	UserID          int64                    `json:"user_id"`
	WalletID        int64                    `json:"wallet_id"`
	EntryID         int64                    `json:"entry_id"`
	TransactionType models.TransactionType   `json:"transaction_type"`
	Status          models.TransactionStatus `json:"status"`
	Amount          decimal.Decimal          `json:"amount"`
	BalanceAfter    decimal.Decimal          `json:"balance_after"`
	BetID           *int64                   `json:"bet_id,omitempty"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// BetCreatedEvent is emitted once a bet and its invitations are stored
type BetCreatedEvent struct {
	BetID       int64           `json:"bet_id"`
	OwnerID     int64           `json:"owner_id"`
	Title       string          `json:"title"`
	StakeAmount decimal.Decimal `json:"stake_amount"`
	InviteeIDs  []int64         `json:"invitee_ids"`
}

func (e BetCreatedEvent) Type() EventType {
	return EventTypeBetCreated
}

// BetParticipatedEvent is emitted when an invitee answers and stakes
type BetParticipatedEvent struct {
	BetID    int64           `json:"bet_id"`
	OwnerID  int64           `json:"owner_id"`
	UserID   int64           `json:"user_id"`
	OptionID int64           `json:"option_id"`
	Title    string          `json:"title"`
	TotalPot decimal.Decimal `json:"total_pot"`
}

func (e BetParticipatedEvent) Type() EventType {
	return EventTypeBetParticipated
}

// BetResolvedEvent is emitted after payouts commit
type BetResolvedEvent struct {
	BetID           int64           `json:"bet_id"`
	Title           string          `json:"title"`
	CorrectOptionID int64           `json:"correct_option_id"`
	TotalPot        decimal.Decimal `json:"total_pot"`
	RewardPerWinner decimal.Decimal `json:"reward_per_winner"`
	WinnerIDs       []int64         `json:"winner_ids"`
	LoserIDs        []int64         `json:"loser_ids"`
}

func (e BetResolvedEvent) Type() EventType {
	return EventTypeBetResolved
}

// DisputeFiledEvent is emitted when a participant disputes a resolved bet
type DisputeFiledEvent struct {
	DisputeID int64  `json:"dispute_id"`
	BetID     int64  `json:"bet_id"`
	OwnerID   int64  `json:"owner_id"`
	UserID    int64  `json:"user_id"`
	Reason    string `json:"reason"`
}

func (e DisputeFiledEvent) Type() EventType {
	return EventTypeDisputeFiled
}

// WithdrawalSettledEvent is emitted when the payment gateway settles a pending withdrawal
type WithdrawalSettledEvent struct {
	UserID      int64                    `json:"user_id"`
	EntryID     int64                    `json:"entry_id"`
	ExternalRef string                   `json:"external_ref"`
	Amount      decimal.Decimal          `json:"amount"`
	Status      models.TransactionStatus `json:"status"`
}

func (e WithdrawalSettledEvent) Type() EventType {
	return EventTypeWithdrawalSettled
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	wg       sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds handler for every event type the core emits
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes {
		b.Subscribe(eventType, handler)
	}
}

// Emit dispatches an event to all registered handlers. Handlers run on their own
// goroutines; a panicking handler is logged and does not affect the others.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	for i, handler := range handlers {
		b.wg.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Wait blocks until every handler started so far has returned. Used on shutdown.
func (b *Bus) Wait() {
	b.wg.Wait()
}

// TransactionalBus holds events raised inside a unit of work until it commits
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish queues an event; nothing is delivered before Flush
func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Queued event on transactional bus")
	b.pending = append(b.pending, e)
}

// Flush hands queued events to the real bus. Called after a successful commit.
func (b *TransactionalBus) Flush(ctx context.Context) {
	// Handlers outlive the request, so they must not inherit its cancellation
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}

	log.WithField("eventCount", len(b.pending)).Debug("Flushed transactional bus")
	b.pending = nil
}

// Discard drops queued events. Called after a rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

// Pending returns the number of queued events
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}
