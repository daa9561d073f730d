package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"facelink/internal/domain/port"
)

// NATSChannel adapts a JetStream subject to the channel port: durable,
// at-least-once, unordered, explicit ack. The consumer's AckWait is the
// redelivery window; a delivery that is never acked comes back.
type NATSChannel struct {
	js      nats.JetStreamContext
	subject string
	durable string
	ackWait time.Duration

	mu  sync.Mutex
	sub *nats.Subscription
}

// NewNATSChannel binds a channel to a subject, creating the backing
// stream when it does not exist yet.
func NewNATSChannel(nc *nats.Conn, stream, subject, durable string, ackWait time.Duration) (*NATSChannel, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	if _, err := js.StreamInfo(stream); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			return nil, fmt.Errorf("stream info %q: %w", stream, err)
		}
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      stream,
			Subjects:  []string{subject},
			Retention: nats.WorkQueuePolicy,
		})
		if err != nil {
			return nil, fmt.Errorf("create stream %q: %w", stream, err)
		}
	}

	return &NATSChannel{
		js:      js,
		subject: subject,
		durable: durable,
		ackWait: ackWait,
	}, nil
}

// Publish sends the payload to the subject. Fire-and-forget beyond the
// server's accepted confirmation.
func (c *NATSChannel) Publish(ctx context.Context, payload []byte) error {
	if _, err := c.js.Publish(c.subject, payload, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish to %q: %w", c.subject, err)
	}
	return nil
}

// Fetch pulls up to max messages, waiting at most wait when the subject
// is empty. Returns an empty slice when nothing arrived in time.
func (c *NATSChannel) Fetch(ctx context.Context, max int, wait time.Duration) ([]port.Delivery, error) {
	sub, err := c.subscription()
	if err != nil {
		return nil, err
	}

	msgs, err := sub.Fetch(max, nats.MaxWait(wait))
	if err != nil {
		if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch from %q: %w", c.subject, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deliveries := make([]port.Delivery, 0, len(msgs))
	for _, msg := range msgs {
		deliveries = append(deliveries, &natsDelivery{msg: msg})
	}
	return deliveries, nil
}

// subscription lazily creates the durable pull consumer so that
// publish-only users of the channel never register one.
func (c *NATSChannel) subscription() (*nats.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sub != nil {
		return c.sub, nil
	}

	sub, err := c.js.PullSubscribe(c.subject, c.durable, nats.AckWait(c.ackWait))
	if err != nil {
		return nil, fmt.Errorf("pull subscribe %q: %w", c.subject, err)
	}
	c.sub = sub
	return sub, nil
}

// Close drains the pull consumer, if one was created.
func (c *NATSChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sub == nil {
		return nil
	}
	err := c.sub.Unsubscribe()
	c.sub = nil
	return err
}

type natsDelivery struct {
	msg *nats.Msg
}

func (d *natsDelivery) Payload() []byte {
	return d.msg.Data
}

func (d *natsDelivery) Ack() error {
	return d.msg.Ack()
}

var _ port.Channel = (*NATSChannel)(nil)
