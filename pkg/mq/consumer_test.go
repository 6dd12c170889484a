package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"malladmin/pkg/trace"
	"malladmin/pkg/util"
)

type recordingAck struct {
	acked   int
	nacked  int
	requeue bool
}

func (r *recordingAck) Ack(tag uint64, multiple bool) error {
	r.acked++
	return nil
}

func (r *recordingAck) Nack(tag uint64, multiple, requeue bool) error {
	r.nacked++
	r.requeue = requeue
	return nil
}

func (r *recordingAck) Reject(tag uint64, requeue bool) error {
	return r.Nack(tag, false, requeue)
}

func newTestConsumer(h MessageHandler) *Consumer {
	return &Consumer{
		queue:      amqp091.Queue{Name: "test"},
		routingKey: "booking.created",
		handler:    h,
		logger:     zap.NewNop(),
	}
}

func TestHandleDelivery(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		redelivered bool
		wantAck     int
		wantNack    int
		wantRequeue bool
	}{
		{name: "success", wantAck: 1},
		{name: "retryable", err: errors.New("boom"), wantNack: 1, wantRequeue: true},
		{name: "retryable redelivered", err: errors.New("boom"), redelivered: true, wantNack: 1},
		{name: "permanent", err: util.Permanent(errors.New("bad")), wantNack: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &recordingAck{}
			c := newTestConsumer(func(ctx context.Context, data json.RawMessage) error {
				return tt.err
			})
			c.handleDelivery(context.Background(), amqp091.Delivery{
				Acknowledger: ack,
				Body:         []byte(`{}`),
				Redelivered:  tt.redelivered,
			})

			assert.Equal(t, tt.wantAck, ack.acked)
			assert.Equal(t, tt.wantNack, ack.nacked)
			assert.Equal(t, tt.wantRequeue, ack.requeue)
		})
	}
}

func TestHandleDeliveryPanicIsRejected(t *testing.T) {
	ack := &recordingAck{}
	c := newTestConsumer(func(ctx context.Context, data json.RawMessage) error {
		panic("handler exploded")
	})

	c.handleDelivery(context.Background(), amqp091.Delivery{Acknowledger: ack})

	assert.Equal(t, 0, ack.acked)
	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeue)
}

func TestHandleDeliveryPropagatesTraceID(t *testing.T) {
	var got string
	c := newTestConsumer(func(ctx context.Context, data json.RawMessage) error {
		got = trace.FromContext(ctx)
		return nil
	})

	c.handleDelivery(context.Background(), amqp091.Delivery{
		Acknowledger: &recordingAck{},
		Headers:      amqp091.Table{trace.HeaderName: "trace-123"},
	})

	assert.Equal(t, "trace-123", got)
}
