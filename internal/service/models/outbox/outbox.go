package outbox

import (
	"time"

	"github.com/google/uuid"
)

// OutboxMessage is a catalog change written in the same transaction as the change itself,
// waiting to be relayed to RabbitMQ.
type OutboxMessage struct {
	ID           int64
	AggregateID  uuid.UUID
	ExchangeName string
	RoutingKey   string
	Payload      []byte
	ContentType  string
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextRetryAt  time.Time
}

// Failed returns the retry count after one more failed publish and whether the row
// is then out of retries. Exhausted rows are never picked up again.
func (m OutboxMessage) Failed() (retryCount int, exhausted bool) {
	retryCount = m.RetryCount + 1

	return retryCount, retryCount >= m.MaxRetries
}
