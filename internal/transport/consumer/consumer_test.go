package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/catalog"
	"github.com/corray333/backend-labs/storefront/internal/service/models/inbox"
	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcome struct {
	acked   bool
	nacked  bool
	requeue bool
}

type recordingAck struct {
	mu       sync.Mutex
	outcomes map[uint64]outcome
}

func newRecordingAck() *recordingAck {
	return &recordingAck{outcomes: map[uint64]outcome{}}
}

func (a *recordingAck) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outcomes[tag] = outcome{acked: true}

	return nil
}

func (a *recordingAck) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outcomes[tag] = outcome{nacked: true, requeue: requeue}

	return nil
}

func (a *recordingAck) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func (a *recordingAck) get(tag uint64) outcome {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.outcomes[tag]
}

type recordingService struct {
	mu      sync.Mutex
	seen    map[uuid.UUID][]time.Time
	failFor map[uuid.UUID]bool
}

func (s *recordingService) OnCatalogChange(_ context.Context, ev catalog.ChangeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failFor[ev.TargetID] {
		return errors.New("index unavailable")
	}
	s.seen[ev.TargetID] = append(s.seen[ev.TargetID], ev.OccurredAt)

	return nil
}

type memInbox struct {
	mu     sync.Mutex
	parked []inbox.InboxMessage
	err    error
}

func (m *memInbox) Insert(_ context.Context, msg inbox.InboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.parked = append(m.parked, msg)

	return nil
}

func body(t *testing.T, ev catalog.ChangeEvent) []byte {
	t.Helper()

	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	return raw
}

func runDispatch(t *testing.T, c *Consumer, deliveries []amqp.Delivery) {
	t.Helper()

	msgs := make(chan amqp.Delivery, len(deliveries))
	for _, d := range deliveries {
		msgs <- d
	}
	close(msgs)

	go c.dispatch(context.Background(), msgs)

	select {
	case <-c.done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch did not finish")
	}
}

func TestLane_IsStableAndInRange(t *testing.T) {
	id := uuid.New()
	first := Lane(id, 8)

	for range 10 {
		assert.Equal(t, first, Lane(id, 8))
	}
	for range 100 {
		l := Lane(uuid.New(), 8)
		assert.GreaterOrEqual(t, l, 0)
		assert.Less(t, l, 8)
	}
}

func TestDispatch_KeepsPerProductOrder(t *testing.T) {
	svc := &recordingService{seen: map[uuid.UUID][]time.Time{}}
	c := newConsumer(svc, &memInbox{}, "storefront.search-index")
	ack := newRecordingAck()

	products := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	want := map[uuid.UUID][]time.Time{}

	var deliveries []amqp.Delivery
	for i := range 30 {
		target := products[i%len(products)]
		at := base.Add(time.Duration(i) * time.Second)
		want[target] = append(want[target], at)
		deliveries = append(deliveries, amqp.Delivery{
			Acknowledger: ack,
			DeliveryTag:  uint64(i + 1),
			Body:         body(t, catalog.ChangeEvent{TargetID: target, Operation: catalog.OperationUpdate, OccurredAt: at}),
		})
	}

	runDispatch(t, c, deliveries)

	for _, id := range products {
		assert.Equal(t, want[id], svc.seen[id])
	}
	for i := range deliveries {
		assert.True(t, ack.get(uint64(i+1)).acked)
	}
}

func TestDispatch_ParksFailuresAndAcks(t *testing.T) {
	broken := uuid.New()
	svc := &recordingService{seen: map[uuid.UUID][]time.Time{}, failFor: map[uuid.UUID]bool{broken: true}}
	parked := &memInbox{}
	c := newConsumer(svc, parked, "storefront.search-index")
	ack := newRecordingAck()

	runDispatch(t, c, []amqp.Delivery{{
		Acknowledger: ack,
		DeliveryTag:  1,
		MessageId:    "outbox-42",
		RoutingKey:   "catalog.product.update",
		Body:         body(t, catalog.ChangeEvent{TargetID: broken, Operation: catalog.OperationUpdate}),
	}})

	assert.True(t, ack.get(1).acked)
	require.Len(t, parked.parked, 1)
	msg := parked.parked[0]
	assert.Equal(t, "outbox-42", msg.MessageID)
	assert.Equal(t, broken, msg.TargetID)
	assert.Equal(t, "storefront.search-index", msg.QueueName)
	assert.Equal(t, "catalog.product.update", msg.RoutingKey)
	assert.Equal(t, "index unavailable", msg.LastError)
	assert.True(t, msg.NextRetryAt.After(msg.CreatedAt))
}

func TestDispatch_RequeuesWhenParkingFails(t *testing.T) {
	broken := uuid.New()
	svc := &recordingService{seen: map[uuid.UUID][]time.Time{}, failFor: map[uuid.UUID]bool{broken: true}}
	c := newConsumer(svc, &memInbox{err: errors.New("db down")}, "q")
	ack := newRecordingAck()

	runDispatch(t, c, []amqp.Delivery{{
		Acknowledger: ack,
		DeliveryTag:  1,
		Body:         body(t, catalog.ChangeEvent{TargetID: broken, Operation: catalog.OperationDelete}),
	}})

	assert.Equal(t, outcome{nacked: true, requeue: true}, ack.get(1))
}

func TestDispatch_DropsMalformedBodies(t *testing.T) {
	svc := &recordingService{seen: map[uuid.UUID][]time.Time{}}
	c := newConsumer(svc, &memInbox{}, "q")
	ack := newRecordingAck()

	runDispatch(t, c, []amqp.Delivery{
		{Acknowledger: ack, DeliveryTag: 1, Body: []byte("not json")},
		{Acknowledger: ack, DeliveryTag: 2, Body: []byte(`{"operation":"UPDATE"}`)},
	})

	assert.Equal(t, outcome{nacked: true}, ack.get(1))
	assert.Equal(t, outcome{nacked: true}, ack.get(2))
	assert.Empty(t, svc.seen)
}

func TestShutdown_StopsDispatch(t *testing.T) {
	c := newConsumer(&recordingService{seen: map[uuid.UUID][]time.Time{}}, &memInbox{}, "q")
	msgs := make(chan amqp.Delivery)

	result := make(chan error, 1)
	go func() { result <- c.dispatch(context.Background(), msgs) }()

	require.NoError(t, c.Shutdown())
	select {
	case <-c.done:
	default:
		t.Fatal("dispatch still running after shutdown")
	}
	assert.NoError(t, <-result)
}

func TestDispatch_ReportsLostDeliveryChannel(t *testing.T) {
	svc := &recordingService{seen: map[uuid.UUID][]time.Time{}}
	c := newConsumer(svc, &memInbox{}, "storefront.search-index")
	ack := newRecordingAck()
	product := uuid.New()

	msgs := make(chan amqp.Delivery, 1)
	msgs <- amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  1,
		Body:         body(t, catalog.ChangeEvent{TargetID: product, Operation: catalog.OperationUpdate}),
	}
	close(msgs)

	err := c.dispatch(context.Background(), msgs)

	require.ErrorIs(t, err, ErrDeliveriesClosed)
	assert.True(t, ack.get(1).acked, "deliveries already taken are still finished")
	select {
	case <-c.done:
	default:
		t.Fatal("done not closed after the delivery channel closed")
	}
}
