package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/orbio/invoice-gateway/pkg/logger"
	"github.com/orbio/invoice-gateway/pkg/redis"
)

// Message is one consumed stream entry.
type Message struct {
	ID        string
	Data      []byte
	Timestamp time.Time
	Attempts  int
}

// MessageHandler processes messages. A nil return acks the message; an error
// leaves it pending for redelivery after the visibility timeout.
type MessageHandler func(ctx context.Context, msg *Message) error

type QueueConfig struct {
	Name              string
	ConsumerGroup     string
	ConsumerName      string
	MaxRetries        int
	VisibilityTimeout time.Duration
	PollInterval      time.Duration
	BatchSize         int64
	MaxLen            int64
}

type Queue struct {
	adapter redis.RedisAdapter
	config  QueueConfig
	handler MessageHandler
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type QueueStats struct {
	TotalMessages   int64
	PendingMessages int64
}

// NewQueue creates a queue over one Redis stream, creating the consumer
// group if it does not exist yet.
func NewQueue(adapter redis.RedisAdapter, config QueueConfig) (*Queue, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("queue name is required")
	}
	if config.ConsumerGroup == "" {
		config.ConsumerGroup = "default-group"
	}
	if config.ConsumerName == "" {
		config.ConsumerName = fmt.Sprintf("consumer-%d", time.Now().UnixNano())
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.VisibilityTimeout == 0 {
		config.VisibilityTimeout = 30 * time.Second
	}
	if config.PollInterval == 0 {
		config.PollInterval = 1 * time.Second
	}
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	if config.MaxLen == 0 {
		config.MaxLen = 100_000
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		adapter: adapter,
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
	}

	err := adapter.XGroupCreateMkStream(config.Name, config.ConsumerGroup, "0")
	if err != nil && !isBusyGroupError(err) {
		cancel()
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return q, nil
}

// PublishJSON marshals v and appends it to the stream, trimming to MaxLen
// approximately.
func (q *Queue) PublishJSON(ctx context.Context, v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	id, err := q.adapter.XAddWithMaxLen(q.config.Name, q.config.MaxLen, map[string]interface{}{
		"data": data,
		"ts":   time.Now().UnixMilli(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish: %w", err)
	}
	return id, nil
}

// Consume starts the poll loop. Messages are delivered to handler one at a
// time per consumer; failed messages stay pending and are reclaimed after
// the visibility timeout, up to MaxRetries deliveries.
func (q *Queue) Consume(handler MessageHandler) error {
	if handler == nil {
		return fmt.Errorf("handler is required")
	}
	q.handler = handler

	q.wg.Add(2)
	go q.pollLoop()
	go q.reclaimLoop()

	return nil
}

func (q *Queue) pollLoop() {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		default:
		}

		messages, err := q.adapter.XReadGroup(
			q.config.ConsumerGroup,
			q.config.ConsumerName,
			q.config.Name,
			">",
			q.config.BatchSize,
			q.config.PollInterval,
		)
		if err != nil {
			if err != redis.NilError {
				logger.Warn("queue read failed", "queue", q.config.Name, "error", err)
				time.Sleep(q.config.PollInterval)
			}
			continue
		}

		for _, sm := range messages {
			q.dispatch(sm, 1)
		}
	}
}

// reclaimLoop picks up messages whose consumer died or whose handler failed,
// once their visibility timeout has elapsed.
func (q *Queue) reclaimLoop() {
	defer q.wg.Done()

	ticker := time.NewTicker(q.config.VisibilityTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.reclaimPending()
		}
	}
}

func (q *Queue) reclaimPending() {
	pending, err := q.adapter.XPendingExt(q.config.Name, q.config.ConsumerGroup, "-", "+", q.config.BatchSize)
	if err != nil {
		if err != redis.NilError {
			logger.Warn("queue pending lookup failed", "queue", q.config.Name, "error", err)
		}
		return
	}

	for _, p := range pending {
		if p.Idle < q.config.VisibilityTimeout {
			continue
		}
		if int(p.RetryCount) > q.config.MaxRetries {
			logger.Error("queue message exceeded max retries, dropping",
				"queue", q.config.Name, "id", p.ID, "retries", p.RetryCount)
			if err := q.adapter.XAck(q.config.Name, q.config.ConsumerGroup, p.ID); err != nil {
				logger.Warn("queue ack of dead message failed", "id", p.ID, "error", err)
			}
			continue
		}

		claimed, err := q.adapter.XClaim(q.config.Name, q.config.ConsumerGroup, q.config.ConsumerName, q.config.VisibilityTimeout, p.ID)
		if err != nil {
			continue
		}
		for _, sm := range claimed {
			q.dispatch(sm, int(p.RetryCount))
		}
	}
}

func (q *Queue) dispatch(sm redis.StreamMessage, attempts int) {
	msg := &Message{
		ID:       sm.ID,
		Attempts: attempts,
	}
	if raw, ok := sm.Values["data"].(string); ok {
		msg.Data = []byte(raw)
	}
	if ts, ok := sm.Values["ts"].(string); ok {
		var ms int64
		if _, err := fmt.Sscanf(ts, "%d", &ms); err == nil {
			msg.Timestamp = time.UnixMilli(ms)
		}
	}

	if err := q.handler(q.ctx, msg); err != nil {
		logger.Warn("queue handler failed, message stays pending",
			"queue", q.config.Name, "id", msg.ID, "attempts", msg.Attempts, "error", err)
		return
	}

	if err := q.adapter.XAck(q.config.Name, q.config.ConsumerGroup, msg.ID); err != nil {
		logger.Warn("queue ack failed", "queue", q.config.Name, "id", msg.ID, "error", err)
	}
}

func (q *Queue) GetStats() (*QueueStats, error) {
	total, err := q.adapter.XLen(q.config.Name)
	if err != nil {
		return nil, err
	}

	stats := &QueueStats{TotalMessages: total}
	if p, err := q.adapter.XPending(q.config.Name, q.config.ConsumerGroup); err == nil && p != nil {
		stats.PendingMessages = p.Count
	}
	return stats, nil
}

// Stop cancels the loops and waits for them up to timeout.
func (q *Queue) Stop(timeout time.Duration) error {
	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timed out waiting for queue %s to stop", q.config.Name)
	}
}

func isBusyGroupError(err error) bool {
	return err != nil && len(err.Error()) >= 9 && err.Error()[:9] == "BUSYGROUP"
}
