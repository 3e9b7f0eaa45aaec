package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/corray333/backend-labs/storefront/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/storefront/internal/service/models/catalog"
	"github.com/corray333/backend-labs/storefront/internal/service/models/inbox"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// ErrDeliveriesClosed means the channel or connection under the consumer is gone
// and no more deliveries will arrive.
var ErrDeliveriesClosed = errors.New("consumer: delivery channel closed")

// service represents the service layer interface.
type service interface {
	OnCatalogChange(ctx context.Context, event catalog.ChangeEvent) error
}

type inboxWriter interface {
	Insert(ctx context.Context, msg inbox.InboxMessage) error
}

type delivery struct {
	msg   amqp.Delivery
	event catalog.ChangeEvent
}

// Consumer reads catalog change events and applies them to the search index.
// Deliveries are spread over lanes by product id: each lane runs one at a time,
// so events of one product are applied in the order they were published.
type Consumer struct {
	channel       *amqp.Channel
	service       service
	inbox         inboxWriter
	queue         string
	consumerTag   string
	lanes         int
	maxRetries    int
	retryInterval time.Duration
	stop          chan struct{}
	done          chan struct{}
	stopOnce      sync.Once
	log           *zap.Logger
}

// NewConsumer opens a dedicated channel, declares the durable queue and binds it to the catalog exchange.
func NewConsumer(client *rabbitmq.Client, svc service, inboxRepo inboxWriter) *Consumer {
	queueName := viper.GetString("rabbitmq.queue")
	if queueName == "" {
		panic("rabbitmq.queue is not set in config")
	}
	exchange := viper.GetString("rabbitmq.catalog_exchange")
	if exchange == "" {
		panic("rabbitmq.catalog_exchange is not set in config")
	}

	ch, err := client.OpenChannel()
	if err != nil {
		panic(fmt.Sprintf("Failed to open consumer channel: %v", err))
	}

	c := newConsumer(svc, inboxRepo, queueName)
	c.channel = ch

	prefetch := viper.GetInt("rabbitmq.prefetch")
	if prefetch <= 0 {
		prefetch = c.lanes * 4
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		panic(err)
	}

	if err := rabbitmq.DeclareTopicExchange(ch, exchange); err != nil {
		panic(err)
	}

	bindingKey := viper.GetString("rabbitmq.binding_key")
	if bindingKey == "" {
		bindingKey = "catalog.product.*"
	}
	_, err = rabbitmq.DeclareBinding(ch, rabbitmq.Binding{
		Queue:    queueName,
		Exchange: exchange,
		Keys:     []string{bindingKey},
	})
	if err != nil {
		panic(err)
	}

	return c
}

func newConsumer(svc service, inboxRepo inboxWriter, queue string) *Consumer {
	lanes := viper.GetInt("rabbitmq.lanes")
	if lanes <= 0 {
		lanes = 8
	}

	maxRetries := viper.GetInt("inbox.max_retries")
	if maxRetries <= 0 {
		maxRetries = 10
	}

	retryIntervalSeconds := viper.GetInt("inbox.retry_interval_seconds")
	if retryIntervalSeconds == 0 {
		retryIntervalSeconds = 30
	}

	consumerTag := viper.GetString("rabbitmq.consumer_tag")
	if consumerTag == "" {
		consumerTag = "storefront-search-index"
	}

	return &Consumer{
		service:       svc,
		inbox:         inboxRepo,
		queue:         queue,
		consumerTag:   consumerTag,
		lanes:         lanes,
		maxRetries:    maxRetries,
		retryInterval: time.Duration(retryIntervalSeconds) * time.Second,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
		log:           zap.L().Named("consumer"),
	}
}

// Run consumes until Shutdown is called or the broker closes the delivery channel.
// Losing the channel is reported as ErrDeliveriesClosed so the caller can stop the process.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := rabbitmq.Consume(c.channel, c.queue, c.consumerTag)
	if err != nil {
		close(c.done)

		return err
	}

	c.log.Info("Consumer started",
		zap.String("queue", c.queue),
		zap.String("consumer_tag", c.consumerTag),
		zap.Int("lanes", c.lanes),
	)

	return c.dispatch(ctx, msgs)
}

// dispatch routes deliveries to their lanes and returns after every lane has drained.
// It returns nil after Shutdown and ErrDeliveriesClosed when the broker side went away.
func (c *Consumer) dispatch(ctx context.Context, msgs <-chan amqp.Delivery) error {
	defer close(c.done)

	lanes := make([]chan delivery, c.lanes)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan delivery, 1)
		wg.Add(1)
		go func(in <-chan delivery) {
			defer wg.Done()
			for d := range in {
				c.process(ctx, d)
			}
		}(lanes[i])
	}

	defer func() {
		for _, lane := range lanes {
			close(lane)
		}
		wg.Wait()
	}()

	for {
		select {
		case <-c.stop:
			c.log.Info("Stopping consumer")

			return nil
		case msg, ok := <-msgs:
			if !ok {
				c.log.Error("Delivery channel closed by the broker", zap.String("queue", c.queue))

				return ErrDeliveriesClosed
			}

			var event catalog.ChangeEvent
			if err := json.Unmarshal(msg.Body, &event); err != nil || event.TargetID == uuid.Nil {
				c.log.Error("Dropping malformed catalog event",
					zap.String("message_id", msg.MessageId),
					zap.Error(err),
				)
				if err := msg.Nack(false, false); err != nil {
					c.log.Error("Failed to nack message", zap.Error(err))
				}

				continue
			}

			lanes[Lane(event.TargetID, c.lanes)] <- delivery{msg: msg, event: event}
		}
	}
}

// Lane picks the lane for a product id.
func Lane(id uuid.UUID, lanes int) int {
	return int(xxhash.Sum64(id[:]) % uint64(lanes))
}

// process applies one event. A failure parks the event in the inbox and acks it;
// only when parking fails too is the delivery handed back to the broker.
func (c *Consumer) process(ctx context.Context, d delivery) {
	err := c.service.OnCatalogChange(ctx, d.event)
	if err == nil {
		if err := d.msg.Ack(false); err != nil {
			c.log.Error("Failed to ack message", zap.Error(err))
		}

		return
	}

	c.log.Warn("Failed to apply catalog event, parking it",
		zap.String("message_id", d.msg.MessageId),
		zap.String("target_id", d.event.TargetID.String()),
		zap.String("operation", string(d.event.Operation)),
		zap.Error(err),
	)

	now := time.Now()
	parkErr := c.inbox.Insert(ctx, inbox.InboxMessage{
		MessageID:   d.msg.MessageId,
		TargetID:    d.event.TargetID,
		QueueName:   c.queue,
		RoutingKey:  d.msg.RoutingKey,
		Payload:     d.msg.Body,
		ContentType: d.msg.ContentType,
		MaxRetries:  c.maxRetries,
		LastError:   err.Error(),
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now.Add(c.retryInterval),
	})
	if parkErr != nil {
		c.log.Error("Failed to park message in inbox, requeueing", zap.Error(parkErr))
		if err := d.msg.Nack(false, true); err != nil {
			c.log.Error("Failed to nack message", zap.Error(err))
		}

		return
	}

	if err := d.msg.Ack(false); err != nil {
		c.log.Error("Failed to ack message", zap.Error(err))
	}
}

// Shutdown stops taking deliveries and waits for the lanes to finish what they hold.
func (c *Consumer) Shutdown() error {
	c.log.Info("Shutting down consumer")
	c.stopOnce.Do(func() { close(c.stop) })

	select {
	case <-c.done:
		c.log.Info("Consumer stopped successfully")
	case <-time.After(10 * time.Second):
		c.log.Warn("Consumer shutdown timeout")
	}

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			return err
		}
	}

	return nil
}
