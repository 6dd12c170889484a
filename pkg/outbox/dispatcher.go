package outbox

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"malladmin/pkg/metrics"
	"malladmin/pkg/trace"
)

// DispatchStore is the part of Repository the dispatcher needs.
type DispatchStore interface {
	GetPendingEvents(ctx context.Context, limit int) ([]*Event, error)
	MarkAsSent(ctx context.Context, eventID int64) error
	MarkAsFailed(ctx context.Context, event *Event, maxRetries int, cause error) (string, error)
}

// EventPublisher hands encoded events to the broker.
type EventPublisher interface {
	PublishRaw(ctx context.Context, routingKey string, body []byte) error
}

// Dispatcher polls the outbox and publishes pending events.
type Dispatcher struct {
	repo       DispatchStore
	publisher  EventPublisher
	logger     *zap.Logger
	maxRetries int
	interval   time.Duration
	batchSize  int
}

func NewDispatcher(repo DispatchStore, publisher EventPublisher, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		repo:       repo,
		publisher:  publisher,
		logger:     logger,
		maxRetries: 5,
		interval:   time.Second,
		batchSize:  100,
	}
}

func (d *Dispatcher) WithMaxRetries(maxRetries int) *Dispatcher {
	if maxRetries > 0 {
		d.maxRetries = maxRetries
	}
	return d
}

func (d *Dispatcher) WithInterval(interval time.Duration) *Dispatcher {
	if interval > 0 {
		d.interval = interval
	}
	return d
}

func (d *Dispatcher) WithBatchSize(batchSize int) *Dispatcher {
	if batchSize > 0 {
		d.batchSize = batchSize
	}
	return d
}

// Start runs until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting Outbox Dispatcher",
		zap.Int("max_retries", d.maxRetries),
		zap.Duration("interval", d.interval),
		zap.Int("batch_size", d.batchSize),
	)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Outbox Dispatcher stopped")
			return
		case <-ticker.C:
			d.ProcessPendingEvents(ctx)
		}
	}
}

// ProcessPendingEvents publishes one batch and returns how many were sent.
func (d *Dispatcher) ProcessPendingEvents(ctx context.Context) int {
	events, err := d.repo.GetPendingEvents(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("Failed to get pending events", zap.Error(err))
		return 0
	}

	sent := 0
	for _, event := range events {
		if err := d.publishEvent(ctx, event); err != nil {
			status, markErr := d.repo.MarkAsFailed(ctx, event, d.maxRetries, err)
			if markErr != nil {
				d.logger.Error("Failed to mark event as failed",
					zap.Int64("event_id", event.ID),
					zap.Error(markErr),
				)
				continue
			}

			d.logger.Warn("Failed to publish event",
				zap.Int64("event_id", event.ID),
				zap.String("routing_key", event.RoutingKey),
				zap.String("status", status),
				zap.Error(err),
			)
			if status == StatusFailed {
				metrics.IncrementOutboxPublished(event.RoutingKey, "failed")
			} else {
				metrics.IncrementOutboxPublished(event.RoutingKey, "retry")
			}
			continue
		}

		if err := d.repo.MarkAsSent(ctx, event.ID); err != nil {
			// the broker already has it; consumers dedupe a second publish
			d.logger.Error("Failed to mark event as sent",
				zap.Int64("event_id", event.ID),
				zap.Error(err),
			)
			continue
		}

		sent++
		metrics.IncrementOutboxPublished(event.RoutingKey, "sent")
		d.logger.Debug("Event published successfully",
			zap.Int64("event_id", event.ID),
			zap.String("routing_key", event.RoutingKey),
		)
	}

	return sent
}

func (d *Dispatcher) publishEvent(ctx context.Context, event *Event) error {
	if event.TraceID != "" {
		ctx = trace.WithContext(ctx, event.TraceID)
	}

	body, err := Envelope{EventID: event.ID, RoutingKey: event.RoutingKey, Payload: event.Payload}.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}

	if err := d.publisher.PublishRaw(ctx, event.RoutingKey, body); err != nil {
		return fmt.Errorf("failed to publish to MQ: %w", err)
	}
	return nil
}
