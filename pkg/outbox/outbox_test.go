package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"malladmin/pkg/trace"
)

type fakeStore struct {
	pending  []*Event
	sent     []int64
	failed   []int64
	inserted []*Event
	delays   []time.Duration
}

func (f *fakeStore) GetPendingEvents(ctx context.Context, limit int) ([]*Event, error) {
	var out []*Event
	for _, e := range f.pending {
		if e.Status == "" || e.Status == StatusPending {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkAsSent(ctx context.Context, eventID int64) error {
	f.sent = append(f.sent, eventID)
	return nil
}

func (f *fakeStore) MarkAsFailed(ctx context.Context, event *Event, maxRetries int, cause error) (string, error) {
	f.failed = append(f.failed, event.ID)
	event.RetryCount++
	status, delay := NextAttempt(event.RetryCount, maxRetries)
	event.Status = status
	f.delays = append(f.delays, delay)
	return status, nil
}

func (f *fakeStore) InsertEvent(ctx context.Context, event *Event) error {
	event.ID = int64(len(f.inserted) + 1)
	f.inserted = append(f.inserted, event)
	return nil
}

type fakePublisher struct {
	failKeys map[string]bool
	bodies   map[string][]byte
	traces   map[string]string
}

func (p *fakePublisher) PublishRaw(ctx context.Context, routingKey string, body []byte) error {
	if p.failKeys[routingKey] {
		return errors.New("broker down")
	}
	if p.bodies == nil {
		p.bodies = map[string][]byte{}
		p.traces = map[string]string{}
	}
	p.bodies[routingKey] = body
	p.traces[routingKey] = trace.FromContext(ctx)
	return nil
}

func TestDispatcherPublishesAndMarks(t *testing.T) {
	store := &fakeStore{pending: []*Event{
		{ID: 1, RoutingKey: "booking.created", Payload: json.RawMessage(`{"booking_id":7}`), TraceID: "t-1"},
		{ID: 2, RoutingKey: "payment.recorded", Payload: json.RawMessage(`{}`)},
	}}
	pub := &fakePublisher{failKeys: map[string]bool{"payment.recorded": true}}

	d := NewDispatcher(store, pub, zap.NewNop())
	sent := d.ProcessPendingEvents(context.Background())

	assert.Equal(t, 1, sent)
	assert.Equal(t, []int64{1}, store.sent)
	assert.Equal(t, []int64{2}, store.failed)
	assert.Equal(t, "t-1", pub.traces["booking.created"])

	var payload struct {
		BookingID int64 `json:"booking_id"`
	}
	env, err := DecodeEnvelope(pub.bodies["booking.created"], &payload)
	require.NoError(t, err)
	assert.Equal(t, int64(1), env.EventID)
	assert.Equal(t, int64(7), payload.BookingID)
}

func TestNextAttempt(t *testing.T) {
	cases := []struct {
		attempts int
		status   string
		delay    time.Duration
	}{
		{1, StatusPending, 5 * time.Second},
		{2, StatusPending, 10 * time.Second},
		{4, StatusPending, 20 * time.Second},
		{5, StatusFailed, 0},
		{6, StatusFailed, 0},
	}
	for _, tc := range cases {
		status, delay := NextAttempt(tc.attempts, 5)
		assert.Equal(t, tc.status, status, "attempt %d", tc.attempts)
		assert.Equal(t, tc.delay, delay, "attempt %d", tc.attempts)
	}
}

func TestDispatcherRetriesThenFails(t *testing.T) {
	event := &Event{ID: 9, RoutingKey: "inquiry.created", Payload: json.RawMessage(`{}`), Status: StatusPending}
	store := &fakeStore{pending: []*Event{event}}
	pub := &fakePublisher{failKeys: map[string]bool{"inquiry.created": true}}
	d := NewDispatcher(store, pub, zap.NewNop()).WithMaxRetries(3)
	ctx := context.Background()

	d.ProcessPendingEvents(ctx)
	assert.Equal(t, StatusPending, event.Status)
	assert.Equal(t, 1, event.RetryCount)

	d.ProcessPendingEvents(ctx)
	assert.Equal(t, StatusPending, event.Status)

	d.ProcessPendingEvents(ctx)
	assert.Equal(t, StatusFailed, event.Status)
	assert.Equal(t, 3, event.RetryCount)
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second, 0}, store.delays)

	d.ProcessPendingEvents(ctx)
	assert.Equal(t, []int64{9, 9, 9}, store.failed, "failed events are not picked up again")
}

func TestWriterEnqueue(t *testing.T) {
	store := &fakeStore{}
	w := NewWriter(store)

	ctx := trace.WithContext(context.Background(), "trace-9")
	require.NoError(t, w.Enqueue(ctx, "booking", 12, "booking.created", map[string]int{"booking_id": 12}))

	require.Len(t, store.inserted, 1)
	e := store.inserted[0]
	assert.Equal(t, "booking", e.AggregateType)
	assert.Equal(t, int64(12), *e.AggregateID)
	assert.Equal(t, StatusPending, e.Status)
	assert.Equal(t, "trace-9", e.TraceID)
	assert.JSONEq(t, `{"booking_id":12}`, string(e.Payload))
}

func TestDecodeEnvelopeErrors(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`not json`), nil)
	assert.Error(t, err)

	_, err = DecodeEnvelope([]byte(`{"routing_key":"x","payload":{}}`), nil)
	assert.Error(t, err)

	var out struct{ N int }
	_, err = DecodeEnvelope([]byte(`{"event_id":1,"routing_key":"x","payload":{"N":"str"}}`), &out)
	assert.Error(t, err)
}

type fakeReplayStore struct {
	replayed []int64
	limit    int
}

func (f *fakeReplayStore) GetFailedEvents(ctx context.Context, limit int) ([]*Event, error) {
	f.limit = limit
	return []*Event{{ID: 3, Status: StatusFailed}}, nil
}

func (f *fakeReplayStore) ReplayEvent(ctx context.Context, eventID int64) error {
	if eventID == 404 {
		return ErrEventNotFound
	}
	f.replayed = append(f.replayed, eventID)
	return nil
}

func (f *fakeReplayStore) ReplayFailedEvents(ctx context.Context, limit int) (int, error) {
	f.limit = limit
	return 2, nil
}

func TestReplayService(t *testing.T) {
	store := &fakeReplayStore{}
	s := NewReplayService(store)
	ctx := context.Background()

	require.NoError(t, s.ReplayEvent(ctx, 3))
	assert.Equal(t, []int64{3}, store.replayed)

	err := s.ReplayEvent(ctx, 404)
	assert.ErrorIs(t, err, ErrEventNotFound)

	n, err := s.ReplayFailedEvents(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 100, store.limit)

	events, err := s.ListFailed(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, 10, store.limit)
}
