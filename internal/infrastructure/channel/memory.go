package channel

import (
	"context"
	"errors"
	"sync"
	"time"

	"facelink/internal/domain/port"
)

// ErrChannelClosed is returned by operations on a closed MemoryChannel.
var ErrChannelClosed = errors.New("channel is closed")

// MemoryChannel is an in-process channel with the same contract as the
// durable adapters: at-least-once, unordered, explicit ack. Used in tests
// and local development. RedeliverUnacked stands in for the redelivery
// window of a real broker.
type MemoryChannel struct {
	mu      sync.Mutex
	queue   []*memoryMessage
	unacked map[uint64]*memoryMessage
	nextSeq uint64
	notify  chan struct{}
	closed  bool
}

// NewMemoryChannel creates an empty in-process channel.
func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{
		unacked: make(map[uint64]*memoryMessage),
		notify:  make(chan struct{}, 1),
	}
}

// Publish enqueues a copy of the payload.
func (c *MemoryChannel) Publish(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	data := make([]byte, len(payload))
	copy(data, payload)
	c.nextSeq++
	c.queue = append(c.queue, &memoryMessage{seq: c.nextSeq, payload: data})
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
	return nil
}

// Fetch returns up to max messages, waiting at most wait when the queue
// is empty. Fetched messages stay unacked until Ack is called.
func (c *MemoryChannel) Fetch(ctx context.Context, max int, wait time.Duration) ([]port.Delivery, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		deliveries, err := c.take(max)
		if err != nil {
			return nil, err
		}
		if len(deliveries) > 0 {
			return deliveries, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, nil
		case <-c.notify:
		}
	}
}

func (c *MemoryChannel) take(max int) ([]port.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrChannelClosed
	}

	n := len(c.queue)
	if n > max {
		n = max
	}
	deliveries := make([]port.Delivery, 0, n)
	for _, msg := range c.queue[:n] {
		c.unacked[msg.seq] = msg
		deliveries = append(deliveries, &memoryDelivery{ch: c, msg: msg})
	}
	c.queue = c.queue[n:]
	return deliveries, nil
}

// RedeliverUnacked requeues every message that was fetched but never
// acked, simulating a broker's redelivery after its window elapses.
func (c *MemoryChannel) RedeliverUnacked() int {
	c.mu.Lock()
	requeued := 0
	for seq, msg := range c.unacked {
		c.queue = append(c.queue, msg)
		delete(c.unacked, seq)
		requeued++
	}
	c.mu.Unlock()

	if requeued > 0 {
		select {
		case c.notify <- struct{}{}:
		default:
		}
	}
	return requeued
}

// Outstanding reports how many fetched messages still await an ack.
func (c *MemoryChannel) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.unacked)
}

// Len reports how many messages wait in the queue.
func (c *MemoryChannel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Close rejects further publishes and fetches.
func (c *MemoryChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

type memoryMessage struct {
	seq     uint64
	payload []byte
}

type memoryDelivery struct {
	ch  *MemoryChannel
	msg *memoryMessage
}

func (d *memoryDelivery) Payload() []byte {
	return d.msg.payload
}

func (d *memoryDelivery) Ack() error {
	d.ch.mu.Lock()
	defer d.ch.mu.Unlock()
	delete(d.ch.unacked, d.msg.seq)
	return nil
}

var _ port.Channel = (*MemoryChannel)(nil)
