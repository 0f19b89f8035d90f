package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"wagerly/events"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaNotifier(t *testing.T) {
	at := time.Date(2025, 6, 14, 20, 0, 0, 0, time.UTC)

	t.Run("messages are keyed by bet", func(t *testing.T) {
		writer := &fakeWriter{}
		notifier := &KafkaNotifier{writer: writer, now: func() time.Time { return at }}

		require.NoError(t, notifier.Notify(context.Background(), events.BetParticipatedEvent{BetID: 4, UserID: 2}))
		require.NoError(t, notifier.Close())

		require.Len(t, writer.messages, 1)
		msg := writer.messages[0]
		assert.Equal(t, "bet-4", string(msg.Key))
		assert.Equal(t, at, msg.Time)
		assert.Equal(t, "bet_participated", string(msg.Headers[0].Value))
		assert.Contains(t, string(msg.Value), `"type":"bet_participated"`)
		assert.True(t, writer.closed)
	})

	t.Run("write errors are wrapped", func(t *testing.T) {
		writer := &fakeWriter{err: errors.New("leader not available")}
		notifier := &KafkaNotifier{writer: writer, now: time.Now}

		err := notifier.Notify(context.Background(), events.BalanceChangeEvent{UserID: 1})

		assert.ErrorContains(t, err, "leader not available")
	})
}
