package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type broker func(tag uint64, msg amqp.Publishing, confirms chan<- amqp.Confirmation, returns chan<- amqp.Return)

func ack(tag uint64, _ amqp.Publishing, confirms chan<- amqp.Confirmation, _ chan<- amqp.Return) {
	confirms <- amqp.Confirmation{DeliveryTag: tag, Ack: true}
}

type fakeChannel struct {
	mu       sync.Mutex
	tag      uint64
	sent     []amqp.Publishing
	flags    []bool
	broker   broker
	confirms chan amqp.Confirmation
	returns  chan amqp.Return
}

func newFakeChannel(b broker) *fakeChannel {
	return &fakeChannel{
		broker:   b,
		confirms: make(chan amqp.Confirmation, 64),
		returns:  make(chan amqp.Return),
	}
}

func (f *fakeChannel) Publish(_, _ string, mandatory, _ bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tag++
	f.sent = append(f.sent, msg)
	f.flags = append(f.flags, mandatory)
	if f.broker != nil {
		go f.broker(f.tag, msg, f.confirms, f.returns)
	}

	return nil
}

func newTestPublisher(b broker, timeout time.Duration) (*ConfirmPublisher, *fakeChannel) {
	ch := newFakeChannel(b)

	return newConfirmPublisher(ch, ch.confirms, ch.returns, timeout), ch
}

func TestConfirmPublisher_AckedMessageSucceeds(t *testing.T) {
	p, ch := newTestPublisher(ack, time.Second)

	err := p.Publish(context.Background(), "catalog.events", "catalog.product.update", amqp.Publishing{MessageId: "outbox-1"})

	require.NoError(t, err)
	require.Len(t, ch.sent, 1)
	assert.True(t, ch.flags[0], "messages are published as mandatory")
}

func TestConfirmPublisher_NackFails(t *testing.T) {
	p, _ := newTestPublisher(func(tag uint64, _ amqp.Publishing, confirms chan<- amqp.Confirmation, _ chan<- amqp.Return) {
		confirms <- amqp.Confirmation{DeliveryTag: tag, Ack: false}
	}, time.Second)

	err := p.Publish(context.Background(), "catalog.events", "k", amqp.Publishing{MessageId: "outbox-1"})

	assert.ErrorIs(t, err, ErrNacked)
}

func TestConfirmPublisher_ReturnedMessageFails(t *testing.T) {
	p, _ := newTestPublisher(func(tag uint64, msg amqp.Publishing, confirms chan<- amqp.Confirmation, returns chan<- amqp.Return) {
		returns <- amqp.Return{
			ReplyCode:  312,
			ReplyText:  "NO_ROUTE",
			Exchange:   "catalog.events",
			RoutingKey: "catalog.product.update",
			MessageId:  msg.MessageId,
		}
		confirms <- amqp.Confirmation{DeliveryTag: tag, Ack: true}
	}, time.Second)

	err := p.Publish(context.Background(), "catalog.events", "catalog.product.update", amqp.Publishing{MessageId: "outbox-7"})

	require.ErrorIs(t, err, ErrUnroutable)
	assert.Contains(t, err.Error(), "NO_ROUTE")
}

func TestConfirmPublisher_MissingConfirmTimesOut(t *testing.T) {
	p, _ := newTestPublisher(nil, 30*time.Millisecond)

	err := p.Publish(context.Background(), "catalog.events", "k", amqp.Publishing{MessageId: "outbox-1"})

	assert.ErrorIs(t, err, ErrConfirmTimeout)
	p.mu.Lock()
	assert.Empty(t, p.pending)
	p.mu.Unlock()
}

func TestConfirmPublisher_ClosedChannelFailsPendingAndLater(t *testing.T) {
	p, ch := newTestPublisher(nil, 5*time.Second)

	result := make(chan error, 1)
	go func() {
		result <- p.Publish(context.Background(), "catalog.events", "k", amqp.Publishing{MessageId: "outbox-1"})
	}()

	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()

		return len(p.pending) == 1
	}, time.Second, 5*time.Millisecond)
	close(ch.confirms)

	assert.ErrorIs(t, <-result, ErrChannelClosed)
	select {
	case <-p.Closed():
	default:
		t.Fatal("Closed not signalled")
	}
	err := p.Publish(context.Background(), "catalog.events", "k", amqp.Publishing{MessageId: "outbox-2"})
	assert.ErrorIs(t, err, ErrChannelClosed)
	assert.Len(t, ch.sent, 1)
}

func TestConfirmPublisher_ConcurrentPublishesMatchTheirTags(t *testing.T) {
	// Every third message is refused, confirms come back in any order.
	p, _ := newTestPublisher(func(tag uint64, _ amqp.Publishing, confirms chan<- amqp.Confirmation, _ chan<- amqp.Return) {
		confirms <- amqp.Confirmation{DeliveryTag: tag, Ack: tag%3 != 0}
	}, time.Second)

	const n = 30
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		nacked  int
		acked   int
		unknown []error
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.Publish(context.Background(), "catalog.events", "k", amqp.Publishing{MessageId: fmt.Sprintf("outbox-%d", i)})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				acked++
			case errors.Is(err, ErrNacked):
				nacked++
			default:
				unknown = append(unknown, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, unknown)
	assert.Equal(t, n/3, nacked)
	assert.Equal(t, n-n/3, acked)
}
