package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"wagerly/events"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) string {
	if testing.Short() {
		t.Skip("skipping redis test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
			Labels: map[string]string{
				"test":      "wagerly-notify",
				"test-name": t.Name(),
				"cleanup":   "auto",
			},
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate redis container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return "redis://" + endpoint
}

func TestRedisNotifier(t *testing.T) {
	url := setupRedis(t)
	ctx := context.Background()

	notifier, err := NewRedisNotifier(ctx, url, "wagerly.test")
	require.NoError(t, err)
	defer notifier.Close()

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	subscriber := redis.NewClient(opts)
	defer subscriber.Close()

	sub := subscriber.Subscribe(ctx, "wagerly.test")
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, notifier.Notify(ctx, events.DisputeFiledEvent{BetID: 5, UserID: 2, Reason: "wrong"}))

	select {
	case msg := <-sub.Channel():
		var envelope struct {
			Type    string                   `json:"type"`
			Payload events.DisputeFiledEvent `json:"payload"`
		}
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &envelope))
		assert.Equal(t, "dispute_filed", envelope.Type)
		assert.Equal(t, int64(5), envelope.Payload.BetID)
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}

func TestNewRedisNotifier_BadURL(t *testing.T) {
	_, err := NewRedisNotifier(context.Background(), "not a url", "x")
	assert.Error(t, err)
}
