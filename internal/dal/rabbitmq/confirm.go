package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

var (
	ErrNacked         = errors.New("rabbitmq: broker did not accept the message")
	ErrUnroutable     = errors.New("rabbitmq: message matched no queue")
	ErrConfirmTimeout = errors.New("rabbitmq: publisher confirm timed out")
	ErrChannelClosed  = errors.New("rabbitmq: publishing channel closed")
)

const defaultConfirmTimeout = 5 * time.Second

type rawPublisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type pendingConfirm struct {
	messageID string
	done      chan error
}

// ConfirmPublisher publishes mandatory messages on a channel in confirm mode.
// Publish returns only after the broker has stored the message, refused it or returned it as unroutable.
type ConfirmPublisher struct {
	ch      rawPublisher
	timeout time.Duration

	mu       sync.Mutex
	nextTag  uint64
	pending  map[uint64]pendingConfirm
	returned map[string]amqp.Return
	closed   bool
	done     chan struct{}
}

// NewConfirmPublisher switches ch to confirm mode. Nothing else may publish on ch afterwards,
// delivery tags are counted here.
func NewConfirmPublisher(ch *amqp.Channel, timeout time.Duration) (*ConfirmPublisher, error) {
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	// returns stays unbuffered: the client hands over a basic.return before the ack
	// that follows it, and the listener must see them in that order.
	confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 256))
	returns := ch.NotifyReturn(make(chan amqp.Return))

	return newConfirmPublisher(ch, confirms, returns, timeout), nil
}

func newConfirmPublisher(
	ch rawPublisher,
	confirms <-chan amqp.Confirmation,
	returns <-chan amqp.Return,
	timeout time.Duration,
) *ConfirmPublisher {
	if timeout <= 0 {
		timeout = defaultConfirmTimeout
	}

	p := &ConfirmPublisher{
		ch:       ch,
		timeout:  timeout,
		pending:  make(map[uint64]pendingConfirm),
		returned: make(map[string]amqp.Return),
		done:     make(chan struct{}),
	}
	go p.listen(confirms, returns)

	return p
}

// Publish sends msg with the mandatory flag and waits for its confirm.
// msg.MessageId must be set, it is how returned messages are matched.
func (p *ConfirmPublisher) Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	done := make(chan error, 1)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()

		return ErrChannelClosed
	}
	if err := p.ch.Publish(exchange, key, true, false, msg); err != nil {
		p.mu.Unlock()

		return err
	}
	p.nextTag++
	tag := p.nextTag
	p.pending[tag] = pendingConfirm{messageID: msg.MessageId, done: done}
	p.mu.Unlock()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		p.forget(tag)

		return fmt.Errorf("%w after %s", ErrConfirmTimeout, p.timeout)
	case <-ctx.Done():
		p.forget(tag)

		return ctx.Err()
	}
}

// Closed is closed once the channel underneath is gone. Every later Publish fails.
func (p *ConfirmPublisher) Closed() <-chan struct{} {
	return p.done
}

func (p *ConfirmPublisher) listen(confirms <-chan amqp.Confirmation, returns <-chan amqp.Return) {
	for {
		select {
		case ret, ok := <-returns:
			if !ok {
				returns = nil

				continue
			}
			p.mu.Lock()
			p.returned[ret.MessageId] = ret
			p.mu.Unlock()
		case conf, ok := <-confirms:
			if !ok {
				p.closeAll()

				return
			}
			p.settle(conf)
		}
	}
}

func (p *ConfirmPublisher) settle(conf amqp.Confirmation) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pc, ok := p.pending[conf.DeliveryTag]
	if !ok {
		return
	}
	delete(p.pending, conf.DeliveryTag)

	ret, wasReturned := p.returned[pc.messageID]
	delete(p.returned, pc.messageID)

	switch {
	case !conf.Ack:
		pc.done <- ErrNacked
	case wasReturned:
		pc.done <- fmt.Errorf("%w: %s via %q (%d %s)", ErrUnroutable, ret.Exchange, ret.RoutingKey, ret.ReplyCode, ret.ReplyText)
	default:
		pc.done <- nil
	}
}

func (p *ConfirmPublisher) forget(tag uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pc, ok := p.pending[tag]; ok {
		delete(p.returned, pc.messageID)
		delete(p.pending, tag)
	}
}

func (p *ConfirmPublisher) closeAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	close(p.done)
	for tag, pc := range p.pending {
		pc.done <- ErrChannelClosed
		delete(p.pending, tag)
	}
}
