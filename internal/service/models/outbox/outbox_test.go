package outbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutboxMessage_Failed(t *testing.T) {
	tests := []struct {
		name      string
		msg       OutboxMessage
		wantCount int
		exhausted bool
	}{
		{"first failure", OutboxMessage{RetryCount: 0, MaxRetries: 10}, 1, false},
		{"one left", OutboxMessage{RetryCount: 8, MaxRetries: 10}, 9, false},
		{"last attempt", OutboxMessage{RetryCount: 9, MaxRetries: 10}, 10, true},
		{"no retries allowed", OutboxMessage{RetryCount: 0, MaxRetries: 1}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, exhausted := tt.msg.Failed()
			assert.Equal(t, tt.wantCount, count)
			assert.Equal(t, tt.exhausted, exhausted)
		})
	}
}
