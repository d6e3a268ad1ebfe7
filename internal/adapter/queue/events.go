package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/invoice-stripe-driver/internal/ports"
)

// EventPublisher serialises driver events to JSON and hands them to a
// MessageQueue.
type EventPublisher struct {
	queue MessageQueue
	log   *zap.Logger
}

var _ ports.EventPublisher = (*EventPublisher)(nil)

func NewEventPublisher(queue MessageQueue, log *zap.Logger) *EventPublisher {
	return &EventPublisher{queue: queue, log: log}
}

func (p *EventPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.queue.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	p.log.Debug("Event published", zap.String("subject", subject), zap.Int("bytes", len(data)))
	return nil
}
