package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/orbio/invoice-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	// unique connection name per test, the adapter registry is global
	connName := t.Name() + "-" + mr.Addr()
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func TestQueue_PublishAndConsume(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	config := QueueConfig{
		Name:              "orders:paid:test",
		ConsumerGroup:     "test-group",
		ConsumerName:      "test-consumer",
		MaxRetries:        3,
		VisibilityTimeout: 5 * time.Second,
		PollInterval:      100 * time.Millisecond,
		BatchSize:         10,
		MaxLen:            1000,
	}

	queue, err := NewQueue(adapter, config)
	require.NoError(t, err)

	ctx := context.Background()
	payload := map[string]string{"reference": "ref-1"}

	_, err = queue.PublishJSON(ctx, payload)
	require.NoError(t, err)

	received := make(chan *Message, 1)
	err = queue.Consume(func(ctx context.Context, msg *Message) error {
		received <- msg
		return nil
	})
	require.NoError(t, err)

	select {
	case msg := <-received:
		var data map[string]string
		require.NoError(t, json.Unmarshal(msg.Data, &data))
		assert.Equal(t, "ref-1", data["reference"])
		assert.Equal(t, 1, msg.Attempts)
	case <-time.After(2 * time.Second):
		t.Fatal("message not received")
	}

	require.NoError(t, queue.Stop(time.Second))
}

func TestQueue_RequiresName(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	_, err := NewQueue(adapter, QueueConfig{})
	assert.Error(t, err)
}

func TestQueue_DefaultsAreApplied(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	queue, err := NewQueue(adapter, QueueConfig{Name: "defaults:test"})
	require.NoError(t, err)
	defer queue.Stop(time.Second)

	assert.Equal(t, "default-group", queue.config.ConsumerGroup)
	assert.NotEmpty(t, queue.config.ConsumerName)
	assert.Equal(t, 3, queue.config.MaxRetries)
	assert.Equal(t, int64(10), queue.config.BatchSize)
}

func TestQueue_FailedHandlerLeavesMessagePending(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	config := QueueConfig{
		Name:              "retry:test",
		ConsumerGroup:     "test-group",
		ConsumerName:      "test-consumer",
		MaxRetries:        3,
		VisibilityTimeout: 5 * time.Second,
		PollInterval:      100 * time.Millisecond,
		BatchSize:         10,
	}

	queue, err := NewQueue(adapter, config)
	require.NoError(t, err)
	defer queue.Stop(time.Second)

	ctx := context.Background()
	_, err = queue.PublishJSON(ctx, map[string]string{"reference": "ref-1"})
	require.NoError(t, err)

	handled := make(chan struct{}, 1)
	err = queue.Consume(func(ctx context.Context, msg *Message) error {
		handled <- struct{}{}
		return assert.AnError
	})
	require.NoError(t, err)

	select {
	case <-handled:
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}

	// the message was never acked, so it stays in the pending list
	require.Eventually(t, func() bool {
		stats, err := queue.GetStats()
		return err == nil && stats.PendingMessages >= 1
	}, 2*time.Second, 50*time.Millisecond)
}

func TestQueue_GetStats(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	config := QueueConfig{
		Name:              "stats:test",
		ConsumerGroup:     "test-group",
		ConsumerName:      "test-consumer",
		PollInterval:      100 * time.Millisecond,
		VisibilityTimeout: 5 * time.Second,
	}

	queue, err := NewQueue(adapter, config)
	require.NoError(t, err)
	defer queue.Stop(time.Second)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := queue.PublishJSON(ctx, map[string]int{"count": i})
		require.NoError(t, err)
	}

	stats, err := queue.GetStats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.TotalMessages, int64(5))
}

func TestQueue_Stop(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	config := QueueConfig{
		Name:              "stop:test",
		ConsumerGroup:     "test-group",
		ConsumerName:      "test-consumer",
		PollInterval:      100 * time.Millisecond,
		VisibilityTimeout: 5 * time.Second,
	}

	queue, err := NewQueue(adapter, config)
	require.NoError(t, err)

	err = queue.Consume(func(ctx context.Context, msg *Message) error {
		time.Sleep(100 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)

	assert.NoError(t, queue.Stop(2 * time.Second))
}
