package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/socialfi-labs/token-worker/internal/job"
	"github.com/socialfi-labs/token-worker/internal/status"
	"github.com/socialfi-labs/token-worker/shared/rabbitmq"
)

// Dispatcher routes one job to its handler and returns the outcome. The
// router implements it; tests substitute fakes.
type Dispatcher interface {
	Dispatch(ctx context.Context, j *job.TransactionJob) *Result
}

// queuePublisher is the slice of the queue client the processor needs:
// republishing retries and emitting dead-letter records.
type queuePublisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
	PublishTo(ctx context.Context, exchange, routingKey string, body []byte, contentType string) error
}

// Config holds worker configuration.
type Config struct {
	Logger               *slog.Logger
	RabbitClient         *rabbitmq.Client
	Reporter             status.Reporter
	Dispatcher           Dispatcher
	Concurrency          int
	PrefetchCount        int
	JobTimeout           time.Duration
	QueueName            string
	DeadLetterExchange   string
	DeadLetterRoutingKey string
}

// Worker consumes transaction job messages and drives them through routing,
// submission, and status reporting.
type Worker struct {
	logger       *slog.Logger
	rabbitClient *rabbitmq.Client
	publisher    queuePublisher
	reporter     status.Reporter
	dispatcher   Dispatcher

	concurrency   int
	prefetchCount int
	jobTimeout    time.Duration
	queueName     string
	dlxExchange   string
	dlxRoutingKey string

	workerID string
	jobsChan chan amqp.Delivery
	wg       sync.WaitGroup
	retryWG  sync.WaitGroup
	stopChan chan struct{}
}

// NewWorker creates a worker instance.
func NewWorker(cfg *Config) *Worker {
	return &Worker{
		logger:        cfg.Logger,
		rabbitClient:  cfg.RabbitClient,
		publisher:     cfg.RabbitClient,
		reporter:      cfg.Reporter,
		dispatcher:    cfg.Dispatcher,
		concurrency:   cfg.Concurrency,
		prefetchCount: cfg.PrefetchCount,
		jobTimeout:    cfg.JobTimeout,
		queueName:     cfg.QueueName,
		dlxExchange:   cfg.DeadLetterExchange,
		dlxRoutingKey: cfg.DeadLetterRoutingKey,
		workerID:      "txworker-" + uuid.New().String()[:8],
		jobsChan:      make(chan amqp.Delivery),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming and processing jobs. Blocks until the context is
// canceled or the delivery channel closes.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer(ctx)
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker, waiting for in-flight jobs and pending
// retry republishes.
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...",
		slog.String("worker_id", w.workerID),
	)
	close(w.stopChan)
	w.wg.Wait()
	w.retryWG.Wait()
	w.logger.Info("Worker stopped",
		slog.String("worker_id", w.workerID),
	)
}
