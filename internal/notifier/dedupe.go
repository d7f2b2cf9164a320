package notifier

import (
	"errors"
	"fmt"
	"time"

	"github.com/orbio/invoice-gateway/pkg/redis"
)

var (
	ErrAlreadyNotified   = errors.New("event already notified")
	ErrLockAcquireFailed = errors.New("failed to acquire dispatch lock")
)

// Dedupe keeps one notification per event ID across competing consumers: a
// short SetNX lock guards in-flight dispatch, a long-lived marker records
// completed ones.
type Dedupe struct {
	redis        redis.RedisAdapter
	lockTTL      time.Duration
	processedTTL time.Duration
}

func NewDedupe(redisAdapter redis.RedisAdapter) *Dedupe {
	return &Dedupe{
		redis:        redisAdapter,
		lockTTL:      30 * time.Second,
		processedTTL: 24 * time.Hour,
	}
}

func (d *Dedupe) processedKey(eventID string) string { return "notified:" + eventID }
func (d *Dedupe) lockKey(eventID string) string      { return "notify-lock:" + eventID }

// Acquire returns ErrAlreadyNotified when the event was dispatched before,
// ErrLockAcquireFailed when another consumer holds it right now.
func (d *Dedupe) Acquire(eventID string) error {
	exists, err := d.redis.Exist(d.processedKey(eventID))
	if err == nil && exists > 0 {
		return ErrAlreadyNotified
	}

	value := []byte(fmt.Sprintf("%d", time.Now().UnixNano()))
	acquired, err := d.redis.SetNX(d.lockKey(eventID), value, d.lockTTL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}
	if !acquired {
		return ErrLockAcquireFailed
	}
	return nil
}

// MarkDone writes the long-lived marker and drops the lock.
func (d *Dedupe) MarkDone(eventID string) error {
	if err := d.redis.Set(d.processedKey(eventID), []byte("1"), d.processedTTL); err != nil {
		return err
	}
	return d.redis.Del(d.lockKey(eventID))
}

// Release frees the lock so a failed dispatch can be retried.
func (d *Dedupe) Release(eventID string) error {
	return d.redis.Del(d.lockKey(eventID))
}
