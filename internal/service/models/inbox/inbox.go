package inbox

import (
	"time"

	"github.com/google/uuid"
)

// InboxMessage is a consumed catalog change whose index update failed and waits for a retry.
type InboxMessage struct {
	ID          int64
	MessageID   string
	TargetID    uuid.UUID
	QueueName   string
	RoutingKey  string
	Payload     []byte
	ContentType string
	RetryCount  int
	MaxRetries  int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	NextRetryAt time.Time
}

// Failed returns the retry count after one more failed attempt and whether the message
// is then out of retries. An exhausted message stays parked for an operator.
func (m InboxMessage) Failed() (retryCount int, exhausted bool) {
	retryCount = m.RetryCount + 1

	return retryCount, retryCount >= m.MaxRetries
}
