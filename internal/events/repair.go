// Package events carries policy repair requests between the API and the
// reconciler over RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ContentTypeJSON is the content type of every published message
const ContentTypeJSON = "application/json"

// ErrInvalidMessage marks a message that can never be processed
var ErrInvalidMessage = errors.New("invalid policy repair message")

// Publisher delivers a message body to the broker
type Publisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// PolicyRepairMessage asks the reconciler to make sure a job has its policy
type PolicyRepairMessage struct {
	JobID       string    `json:"job_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// DecodePolicyRepair parses and validates a repair message body
func DecodePolicyRepair(body []byte) (*PolicyRepairMessage, error) {
	var msg PolicyRepairMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	if _, err := uuid.Parse(msg.JobID); err != nil {
		return nil, fmt.Errorf("%w: job_id %q is not a UUID", ErrInvalidMessage, msg.JobID)
	}

	return &msg, nil
}

// RepairPublisher publishes policy repair requests
type RepairPublisher struct {
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewRepairPublisher creates a RepairPublisher
func NewRepairPublisher(publisher Publisher, logger *slog.Logger) *RepairPublisher {
	return &RepairPublisher{
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RequestPolicyRepair enqueues a repair request for jobID
func (p *RepairPublisher) RequestPolicyRepair(ctx context.Context, jobID string) error {
	body, err := json.Marshal(PolicyRepairMessage{
		JobID:       jobID,
		RequestedAt: p.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal repair message: %w", err)
	}

	if err := p.publisher.PublishWithRetry(ctx, body, ContentTypeJSON); err != nil {
		return fmt.Errorf("failed to publish repair request: %w", err)
	}

	p.logger.Info("Policy repair requested",
		slog.String("job_id", jobID),
	)
	return nil
}
