package ports

import (
	"context"
	"time"
)

// Message is one event handed to the bus. Key is the partition key (order ID);
// the bus keeps per-key order for messages published sequentially.
type Message struct {
	ID         string
	Key        string
	Type       string
	Payload    []byte
	OccurredAt time.Time
}

// MessageBus publishes a message and returns only after the broker acknowledged it.
type MessageBus interface {
	Publish(ctx context.Context, msg Message) error
}
