package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"wagerly/events"

	log "github.com/sirupsen/logrus"
)

// Notifier delivers committed domain events to an outside audience. Delivery is
// best effort: errors are logged by the dispatcher and never reach the
// operation that raised the event.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, event events.Event) error
}

// deliveryTimeout bounds a single notifier call so a slow sink cannot pile up handlers
const deliveryTimeout = 10 * time.Second

// Register subscribes every notifier to every event type on bus
func Register(bus *events.Bus, notifiers ...Notifier) {
	for _, n := range notifiers {
		bus.SubscribeAll(func(ctx context.Context, event events.Event) {
			deliver(ctx, n, event)
		})
		log.WithField("notifier", n.Name()).Info("Notifier registered")
	}
}

func deliver(ctx context.Context, n Notifier, event events.Event) {
	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	if err := n.Notify(ctx, event); err != nil {
		log.WithFields(log.Fields{
			"notifier":  n.Name(),
			"eventType": event.Type(),
			"error":     err,
		}).Warn("Failed to deliver notification")
	}
}

// Envelope is the wire form of an event on the broker channels
type Envelope struct {
	Type       events.EventType `json:"type"`
	OccurredAt time.Time        `json:"occurred_at"`
	Payload    events.Event     `json:"payload"`
}

func encode(event events.Event, now time.Time) ([]byte, error) {
	data, err := json.Marshal(Envelope{
		Type:       event.Type(),
		OccurredAt: now.UTC(),
		Payload:    event,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", event.Type(), err)
	}
	return data, nil
}

// partitionKey keeps every event of one bet, or of one user's wallet, in order
func partitionKey(event events.Event) string {
	switch e := event.(type) {
	case events.BetCreatedEvent:
		return "bet-" + strconv.FormatInt(e.BetID, 10)
	case events.BetParticipatedEvent:
		return "bet-" + strconv.FormatInt(e.BetID, 10)
	case events.BetResolvedEvent:
		return "bet-" + strconv.FormatInt(e.BetID, 10)
	case events.DisputeFiledEvent:
		return "bet-" + strconv.FormatInt(e.BetID, 10)
	case events.BalanceChangeEvent:
		return "user-" + strconv.FormatInt(e.UserID, 10)
	case events.WithdrawalSettledEvent:
		return "user-" + strconv.FormatInt(e.UserID, 10)
	}
	return string(event.Type())
}

// LogNotifier writes every event to the structured log
type LogNotifier struct{}

func (LogNotifier) Name() string { return "log" }

func (LogNotifier) Notify(ctx context.Context, event events.Event) error {
	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"key":       partitionKey(event),
	}).Info("Event committed")
	return nil
}
