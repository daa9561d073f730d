package port

import (
	"context"
	"time"
)

// Delivery is one message handed to a consumer. The channel redelivers a
// message whose Ack was never called once its redelivery window elapses,
// so consumers must stay idempotent.
type Delivery interface {
	// Payload returns the message body.
	Payload() []byte

	// Ack removes the message from the channel. Safe to call once per
	// delivery; duplicates of the same message may still arrive.
	Ack() error
}

// Publisher sends messages to a durable channel. Publish is fire-and-forget
// beyond channel-accepted confirmation.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// Consumer pulls messages from a durable channel. At-least-once,
// unordered: messages may arrive more than once and in any order.
type Consumer interface {
	// Fetch returns up to max deliveries, waiting at most wait when the
	// channel is empty. An empty slice with a nil error means no messages
	// arrived within the wait.
	Fetch(ctx context.Context, max int, wait time.Duration) ([]Delivery, error)
}

// Channel is a durable, at-least-once, unordered, multi-producer,
// multi-consumer message queue.
type Channel interface {
	Publisher
	Consumer
}
