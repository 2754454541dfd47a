// Package worker runs the policy reconciler: it consumes repair requests
// from RabbitMQ and periodically sweeps for assigned jobs whose safety
// policy was never written.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/swayam-be/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Repairer writes the missing safety policy for a job
type Repairer interface {
	RepairPolicy(ctx context.Context, jobID string) (*domain.SafetyPolicy, error)
}

// PendingJobs finds assignments that still lack a policy
type PendingJobs interface {
	ListJobsMissingPolicy(ctx context.Context, assignedBefore time.Time, limit int) ([]domain.Job, error)
}

// Broker is the consuming side of the RabbitMQ client
type Broker interface {
	Consume(consumerTag string, prefetchCount int) (<-chan amqp.Delivery, error)
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	Broker        Broker
	Repairer      Repairer
	Pending       PendingJobs
	WorkerID      string
	QueueName     string
	Concurrency   int
	PrefetchCount int
	JobTimeout    time.Duration
	SweepInterval time.Duration
	BatchSize     int
	GracePeriod   time.Duration
}

// repairMessage is a decoded delivery waiting for a pool goroutine
type repairMessage struct {
	JobID    string
	delivery amqp.Delivery
}

// Worker represents the policy reconciler
type Worker struct {
	logger         *slog.Logger
	broker         Broker
	repairer       Repairer
	pending        PendingJobs
	workerID       string
	queueName      string
	concurrency    int
	prefetchCount  int
	jobTimeout     time.Duration
	sweepInterval  time.Duration
	batchSize      int
	gracePeriod    time.Duration
	// reconsumeDelay is the first backoff after the delivery channel closes
	reconsumeDelay time.Duration
	now            func() time.Time
	jobsChan       chan *repairMessage
	wg             sync.WaitGroup
	stopChan       chan struct{}
	stopOnce       sync.Once
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := max(cfg.Concurrency, 1)

	return &Worker{
		logger:         cfg.Logger,
		broker:         cfg.Broker,
		repairer:       cfg.Repairer,
		pending:        cfg.Pending,
		workerID:       cfg.WorkerID,
		queueName:      cfg.QueueName,
		concurrency:    concurrency,
		prefetchCount:  max(cfg.PrefetchCount, concurrency),
		jobTimeout:     cfg.JobTimeout,
		sweepInterval:  cfg.SweepInterval,
		batchSize:      max(cfg.BatchSize, 1),
		gracePeriod:    cfg.GracePeriod,
		reconsumeDelay: defaultReconsumeDelay,
		now:            func() time.Time { return time.Now().UTC() },
		jobsChan:       make(chan *repairMessage, concurrency),
		stopChan:       make(chan struct{}),
	}
}

// Start consumes repair requests and runs the sweep until ctx is canceled
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
		slog.Duration("sweep_interval", w.sweepInterval),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return err
	}

	w.spawnWorkerPool(ctx)

	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.startMessageDispatcher(ctx, deliveries)
	}()
	go func() {
		defer w.wg.Done()
		w.runSweeper(ctx)
	}()

	select {
	case <-ctx.Done():
		w.logger.Info("Worker context canceled, stopping...")
	case <-w.stopChan:
	}

	return nil
}

// Stop signals every goroutine to finish and waits for them
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
