package notify

import (
	"context"
	"fmt"
	"time"

	"wagerly/events"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier appends every event to a Kafka topic, keyed so that events of
// one bet or one wallet land on the same partition.
type KafkaNotifier struct {
	writer messageWriter
	now    func() time.Time
}

// NewKafkaNotifier creates a writer for topic on brokers
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		now: time.Now,
	}
}

func (n *KafkaNotifier) Name() string { return "kafka" }

func (n *KafkaNotifier) Notify(ctx context.Context, event events.Event) error {
	now := n.now()
	payload, err := encode(event, now)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(partitionKey(event)),
		Value: payload,
		Time:  now,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type())},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write %s event: %w", event.Type(), err)
	}
	return nil
}

// Close flushes pending messages and closes the writer
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
