package rabbitmq

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Client owns one broker connection and the channel publishers share.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Channel returns the publishing channel.
func (r *Client) Channel() *amqp.Channel {
	return r.channel
}

// OpenChannel opens another channel on the same connection.
// Consumers take their own so prefetch settings stay off the publishing channel.
func (r *Client) OpenChannel() (*amqp.Channel, error) {
	return r.conn.Channel()
}

// NotifyClose returns a channel that receives the error when the broker connection drops.
// It is closed without a value after a graceful Close.
func (r *Client) NotifyClose() <-chan *amqp.Error {
	return r.conn.NotifyClose(make(chan *amqp.Error, 1))
}

// Close closes the publishing channel, then the connection.
func (r *Client) Close() error {
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			return err
		}
	}
	if r.conn != nil {
		return r.conn.Close()
	}

	return nil
}

// MustNewClient dials the broker from rabbitmq.* settings and the RABBITMQ_DEFAULT_* credentials.
func MustNewClient() *Client {
	port := viper.GetInt("rabbitmq.port")
	if port == 0 {
		port = 5672
	}

	uri := amqp.URI{
		Scheme:   "amqp",
		Host:     viper.GetString("rabbitmq.host"),
		Port:     port,
		Username: os.Getenv("RABBITMQ_DEFAULT_USER"),
		Password: os.Getenv("RABBITMQ_DEFAULT_PASS"),
		Vhost:    "/",
	}

	conn, err := amqp.Dial(uri.String())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to RabbitMQ at %s:%d: %v", uri.Host, uri.Port, err))
	}

	channel, err := conn.Channel()
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			zap.L().Error("Failed to close RabbitMQ connection", zap.Error(closeErr))
		}
		panic(fmt.Sprintf("Failed to open a channel: %v", err))
	}

	zap.L().Info("RabbitMQ connected", zap.String("host", uri.Host), zap.Int("port", uri.Port))

	return &Client{
		conn:    conn,
		channel: channel,
	}
}

// DeclareTopicExchange declares a durable topic exchange. Publishers and consumers both call it,
// whichever starts first creates the exchange.
func DeclareTopicExchange(ch *amqp.Channel, name string) error {
	if name == "" {
		return fmt.Errorf("exchange name is empty")
	}

	return ch.ExchangeDeclare(name, amqp.ExchangeTopic, true, false, false, false, nil)
}

// Binding describes a durable queue bound to an exchange by one or more routing patterns.
type Binding struct {
	Queue    string
	Exchange string
	Keys     []string
}

// DeclareBinding declares the queue and binds every key to the exchange.
func DeclareBinding(ch *amqp.Channel, b Binding) (amqp.Queue, error) {
	queue, err := ch.QueueDeclare(b.Queue, true, false, false, false, nil)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("declare queue %s: %w", b.Queue, err)
	}

	for _, key := range b.Keys {
		if err := ch.QueueBind(queue.Name, key, b.Exchange, false, nil); err != nil {
			return amqp.Queue{}, fmt.Errorf("bind %s to %s with %q: %w", queue.Name, b.Exchange, key, err)
		}
	}

	return queue, nil
}

// Consume starts a manual-ack consumer on the queue.
func Consume(ch *amqp.Channel, queue, consumerTag string) (<-chan amqp.Delivery, error) {
	return ch.Consume(queue, consumerTag, false, false, false, false, nil)
}
