package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/swayam-be/internal/events"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultReconsumeDelay = time.Second
	maxReconsumeDelay     = 30 * time.Second
)

// setupConsumer starts consuming the repair queue with the configured QoS
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	deliveries, err := w.broker.Consume(w.workerID, w.prefetchCount)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("RabbitMQ consumer started",
		slog.String("consumer_tag", w.workerID),
		slog.String("queue", w.queueName),
		slog.Int("prefetch_count", w.prefetchCount),
	)

	return deliveries, nil
}

// startMessageDispatcher decodes deliveries and hands them to the pool. When
// the broker closes the delivery channel it consumes the queue again.
func (w *Worker) startMessageDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) {
	w.logger.Info("Message dispatcher started",
		slog.String("worker_id", w.workerID),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return

		case <-w.stopChan:
			w.logger.Info("Message dispatcher stopped")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed, consuming again")
				deliveries = w.reconsume(ctx)
				if deliveries == nil {
					return
				}
				continue
			}

			if !w.dispatch(ctx, delivery) {
				return
			}
		}
	}
}

// reconsume calls setupConsumer with exponential backoff until it succeeds.
// It returns nil once the worker is stopping.
func (w *Worker) reconsume(ctx context.Context) <-chan amqp.Delivery {
	delay := w.reconsumeDelay
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil
		case <-w.stopChan:
			return nil
		case <-time.After(delay):
		}

		deliveries, err := w.setupConsumer()
		if err == nil {
			w.logger.Info("Resumed consuming repair queue",
				slog.String("queue", w.queueName),
				slog.Int("attempt", attempt),
			)
			return deliveries
		}

		w.logger.Warn("Failed to resume consuming, retrying...",
			slog.Int("attempt", attempt),
			slog.Duration("retry_after", delay),
			slog.String("error", err.Error()),
		)
		delay = min(delay*2, maxReconsumeDelay)
	}
}

// dispatch decodes one delivery and queues it for the pool. It returns false
// when the worker is shutting down.
func (w *Worker) dispatch(ctx context.Context, delivery amqp.Delivery) bool {
	msg, err := events.DecodePolicyRepair(delivery.Body)
	if err != nil {
		w.logger.Error("Dropping invalid repair message",
			slog.String("error", err.Error()),
			slog.String("body", string(delivery.Body)),
		)
		// dead-lettered, never requeued
		if nackErr := delivery.Nack(false, false); nackErr != nil {
			w.logger.Error("Failed to NACK invalid message",
				slog.String("error", nackErr.Error()),
			)
		}
		return true
	}

	select {
	case w.jobsChan <- &repairMessage{JobID: msg.JobID, delivery: delivery}:
		w.logger.Debug("Repair request dispatched",
			slog.String("job_id", msg.JobID),
			slog.Uint64("delivery_tag", delivery.DeliveryTag),
		)
		return true
	case <-ctx.Done():
	case <-w.stopChan:
	}

	if nackErr := delivery.Nack(false, true); nackErr != nil {
		w.logger.Error("Failed to NACK message on shutdown",
			slog.String("error", nackErr.Error()),
		)
	}
	return false
}
