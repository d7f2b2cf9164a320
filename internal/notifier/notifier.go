package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/orbio/invoice-gateway/internal/config"
	"github.com/orbio/invoice-gateway/internal/queue"
	"github.com/orbio/invoice-gateway/pkg/logger"
	"github.com/orbio/invoice-gateway/pkg/redis"
	"github.com/orbio/invoice-gateway/pkg/worker"
)

const DispatchTimeout = time.Second * 15
const HealthInterval = time.Second * 30
const ShutdownTimeout = time.Minute

const consumerInstances = 4
const workerCount = 32

// Dispatcher handles one consumed event.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg *queue.Message) error
	GetType() string
}

// Service consumes the order.paid stream and fans events out to a worker
// pool running the registered dispatcher.
type Service struct {
	adapter    redis.RedisAdapter
	queues     []*queue.Queue
	dispatcher Dispatcher
	metrics    *serviceMetrics
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	worker     *worker.WorkerManager
}

func NewService(redisAdapter redis.RedisAdapter) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		adapter: redisAdapter,
		queues:  make([]*queue.Queue, 0),
		metrics: newServiceMetrics(),
		ctx:     ctx,
		cancel:  cancel,
		worker:  worker.NewWorkerManager(10_000, workerCount, nil),
	}
}

func (s *Service) RegisterDispatcher(d Dispatcher) {
	s.dispatcher = d
	logger.Info("registered dispatcher", "type", d.GetType())
}

func (s *Service) Start() error {
	logger.Info("starting notifier service")

	s.worker.SetWorker(s.workerHandler)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.worker.Start(); err != nil {
			logger.Error("worker manager stopped", "error", err)
		}
	}()

	for i := 0; i < consumerInstances; i++ {
		queueConfig := queue.QueueConfig{
			Name:              config.Get().EventStreamName,
			ConsumerGroup:     config.Get().EventConsumerGroup,
			ConsumerName:      fmt.Sprintf("%s-instance-%d", config.Get().EventConsumerName, i),
			MaxRetries:        config.Get().EventMaxRetries,
			VisibilityTimeout: config.Get().EventVisibilityTimeout,
			PollInterval:      config.Get().EventPollInterval,
			BatchSize:         config.Get().EventBatchSize,
			MaxLen:            config.Get().EventMaxLen,
		}

		q, err := queue.NewQueue(s.adapter, queueConfig)
		if err != nil {
			return fmt.Errorf("failed to create queue %d: %w", i, err)
		}

		if err := q.Consume(s.messageHandler); err != nil {
			return fmt.Errorf("failed to start consumer %d: %w", i, err)
		}

		s.queues = append(s.queues, q)
	}

	s.wg.Add(2)
	go s.metricsReporter()
	go s.healthChecker()

	logger.Info("notifier service started", "consumers", len(s.queues), "workers", workerCount)
	return nil
}

func (s *Service) metricsReporter() {
	defer s.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reportMetrics()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) reportMetrics() {
	stats := s.metrics.GetStats()
	logger.Info("notifier metrics",
		"total_dispatched", stats["total_dispatched"],
		"total_failed", stats["total_failed"],
		"rate_per_second", stats["rate_per_second"],
		"avg_duration_ms", stats["avg_duration_ms"],
		"uptime_seconds", stats["uptime_seconds"])

	for i, q := range s.queues {
		if qStats, err := q.GetStats(); err == nil {
			logger.Info("queue stats", "queue", i, "total", qStats.TotalMessages, "pending", qStats.PendingMessages)
		}
	}
}

func (s *Service) healthChecker() {
	defer s.wg.Done()

	ticker := time.NewTicker(HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.performHealthCheck()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) performHealthCheck() {
	if err := s.adapter.Client().Ping(context.Background()).Err(); err != nil {
		logger.Error("health check failed: redis connection error", "error", err)
		return
	}

	for i, q := range s.queues {
		stats, err := q.GetStats()
		if err != nil {
			logger.Warn("health check: queue stats unavailable", "queue", i, "error", err)
			continue
		}
		if stats.PendingMessages > 10000 {
			logger.Warn("health check: queue has high lag", "queue", i, "pending_messages", stats.PendingMessages)
		}
	}
}

// Stop drains the consumers, then the worker pool.
func (s *Service) Stop() {
	logger.Info("shutting down notifier service")

	s.cancel()

	timeout := ShutdownTimeout
	stopChan := make(chan bool, len(s.queues))

	for i, q := range s.queues {
		go func(index int, queue *queue.Queue) {
			if err := queue.Stop(timeout); err != nil {
				logger.Error("error stopping queue", "queue", index, "error", err)
			}
			stopChan <- true
		}(i, q)
	}

	for range s.queues {
		select {
		case <-stopChan:
		case <-time.After(timeout + 5*time.Second):
			logger.Warn("timeout waiting for queues to stop")
		}
	}

	s.worker.Exit()
	s.wg.Wait()
	s.reportMetrics()

	logger.Info("notifier service stopped")
}

type jobResult struct {
	msg        *queue.Message
	resultChan chan error
	ctx        context.Context
}

// messageHandler hands consumed messages to the worker pool and waits for
// the dispatch result so the queue can ack or redeliver.
func (s *Service) messageHandler(ctx context.Context, msg *queue.Message) error {
	resultChan := make(chan error, 1)

	msgCtx, cancel := context.WithTimeout(ctx, DispatchTimeout+time.Second)
	defer cancel()

	job := &jobResult{
		msg:        msg,
		resultChan: resultChan,
		ctx:        msgCtx,
	}

	s.worker.Enqueue(job)

	select {
	case err := <-resultChan:
		return err
	case <-msgCtx.Done():
		return fmt.Errorf("timeout waiting for worker to dispatch event: %w", msgCtx.Err())
	}
}

func (s *Service) workerHandler(workerIndex int, job interface{}) {
	jobRes, ok := job.(*jobResult)
	if !ok {
		logger.Error("invalid job type in worker", "worker", workerIndex)
		return
	}

	msg := jobRes.msg
	start := time.Now()
	var resultErr error

	select {
	case <-jobRes.ctx.Done():
		logger.Warn("job context cancelled before dispatch started", "worker", workerIndex)
		return
	default:
	}

	if s.dispatcher == nil {
		logger.Info("no dispatcher registered", "worker", workerIndex)
		s.metrics.RecordFailure()
		resultErr = nil // ack, nothing will handle it on retry either
	} else if err := s.dispatcher.Dispatch(jobRes.ctx, msg); err != nil {
		s.metrics.RecordFailure()
		logger.Error("failed to dispatch event", "worker", workerIndex, "error", err)
		resultErr = err
	} else {
		s.metrics.RecordSuccess(time.Since(start))
	}

	select {
	case jobRes.resultChan <- resultErr:
	case <-jobRes.ctx.Done():
		logger.Warn("context cancelled while sending result", "worker", workerIndex)
	}
}
