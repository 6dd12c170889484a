package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"malladmin/pkg/trace"
)

// EventInserter persists outbox events.
type EventInserter interface {
	InsertEvent(ctx context.Context, event *Event) error
}

// Writer turns domain payloads into pending outbox rows.
type Writer struct {
	repo EventInserter
}

func NewWriter(repo EventInserter) *Writer {
	return &Writer{repo: repo}
}

// Enqueue records an event for routingKey. It must be called with the
// context of the transaction that writes the aggregate.
func (w *Writer) Enqueue(ctx context.Context, aggregateType string, aggregateID int64, routingKey string, payload any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", routingKey, err)
	}

	id := aggregateID
	event := &Event{
		AggregateType: aggregateType,
		AggregateID:   &id,
		RoutingKey:    routingKey,
		Payload:       payloadJSON,
		TraceID:       trace.FromContext(ctx),
		Status:        StatusPending,
	}

	return w.repo.InsertEvent(ctx, event)
}
