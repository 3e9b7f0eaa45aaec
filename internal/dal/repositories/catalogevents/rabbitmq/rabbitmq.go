package rabbitmqrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/storefront/internal/service/models/outbox"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"
)

type confirmPublisher interface {
	Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error
	Closed() <-chan struct{}
}

// CatalogEventsRabbitMQRepository publishes relayed outbox messages to the catalog exchange.
// A message counts as published only once the broker has confirmed it.
type CatalogEventsRabbitMQRepository struct {
	publisher confirmPublisher
	limit     int
}

// NewCatalogEventsRabbitMQRepository declares the catalog exchange, puts the publishing
// channel in confirm mode and returns the publisher.
func NewCatalogEventsRabbitMQRepository(client *rabbitmq.Client) *CatalogEventsRabbitMQRepository {
	if err := rabbitmq.DeclareTopicExchange(client.Channel(), viper.GetString("rabbitmq.catalog_exchange")); err != nil {
		panic(err)
	}

	timeout := time.Duration(viper.GetInt("rabbitmq.confirm_timeout_seconds")) * time.Second
	pub, err := rabbitmq.NewConfirmPublisher(client.Channel(), timeout)
	if err != nil {
		panic(err)
	}

	return newRepository(pub, viper.GetInt("outbox.publish_parallelism"))
}

func newRepository(pub confirmPublisher, limit int) *CatalogEventsRabbitMQRepository {
	if limit <= 0 {
		limit = 3
	}

	return &CatalogEventsRabbitMQRepository{
		publisher: pub,
		limit:     limit,
	}
}

// Closed is closed when the publishing channel is lost and nothing can be published anymore.
func (r *CatalogEventsRabbitMQRepository) Closed() <-chan struct{} {
	return r.publisher.Closed()
}

// PublishOrdered publishes the messages and returns the ids that went out and the first failure per aggregate.
// Messages of one aggregate are sent one after another and stop at the first failure,
// different aggregates are published in parallel.
func (r *CatalogEventsRabbitMQRepository) PublishOrdered(
	ctx context.Context,
	messages []outbox.OutboxMessage,
) (published []int64, failed map[int64]error) {
	groups := make(map[string][]outbox.OutboxMessage)
	order := make([]string, 0)
	for _, msg := range messages {
		key := msg.AggregateID.String()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], msg)
	}

	type result struct {
		sent   []int64
		failID int64
		err    error
	}
	results := make([]result, len(order))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)

	for i, key := range order {
		g.Go(func() error {
			for _, msg := range groups[key] {
				if err := gctx.Err(); err != nil {
					results[i].failID, results[i].err = msg.ID, err

					return nil
				}
				if err := r.publish(gctx, msg); err != nil {
					results[i].failID, results[i].err = msg.ID, err

					return nil
				}
				results[i].sent = append(results[i].sent, msg.ID)
			}

			return nil
		})
	}
	_ = g.Wait()

	failed = make(map[int64]error)
	for _, res := range results {
		published = append(published, res.sent...)
		if res.err != nil {
			failed[res.failID] = res.err
		}
	}

	return published, failed
}

func (r *CatalogEventsRabbitMQRepository) publish(ctx context.Context, msg outbox.OutboxMessage) error {
	err := r.publisher.Publish(ctx, msg.ExchangeName, msg.RoutingKey, amqp.Publishing{
		ContentType:  msg.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    fmt.Sprintf("outbox-%d", msg.ID),
		Timestamp:    msg.CreatedAt,
		Body:         msg.Payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish outbox message %d: %w", msg.ID, err)
	}

	return nil
}
