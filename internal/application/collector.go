package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"facelink/internal/domain/entity"
	"facelink/internal/domain/port"
)

// ErrTimeout is returned by Wait when no terminal result arrived before
// the deadline.
var ErrTimeout = errors.New("no terminal result before deadline")

// pendingEntry is the collector's bookkeeping for one in-flight frame.
// Owned exclusively by the collector; destroyed on accept or expiry.
type pendingEntry struct {
	frameID     string
	submittedAt time.Time
	deadline    time.Time
	polls       int
	resultCh    chan entity.RecognitionResult // buffered, one send ever
}

// Await is a registered claim on one frame's terminal result. Register
// must happen before the frame enters the pipeline, otherwise a fast
// result can land ahead of the pending entry and be discarded as unknown.
type Await struct {
	collector *ResultCollector
	entry     *pendingEntry
}

// ResultCollector polls the result channel and surfaces exactly one
// terminal outcome per awaited frame. Correct under arbitrary delivery
// order and arbitrary duplication: acceptance is keyed by frame id, and
// anything unknown or already accepted is acked and discarded.
type ResultCollector struct {
	results      port.Consumer
	pollInterval time.Duration
	batchSize    int
	log          zerolog.Logger

	mu      sync.Mutex
	pending map[string]*pendingEntry
}

// NewResultCollector wires the collector. Run must be started before
// AwaitResult can complete.
func NewResultCollector(results port.Consumer, pollInterval time.Duration, log zerolog.Logger) *ResultCollector {
	return &ResultCollector{
		results:      results,
		pollInterval: pollInterval,
		batchSize:    10,
		log:          log.With().Str("component", "collector").Logger(),
		pending:      make(map[string]*pendingEntry),
	}
}

// Run polls the result channel until the context is canceled, dispatching
// results to their waiting callers.
func (c *ResultCollector) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		deliveries, err := c.results.Fetch(ctx, c.batchSize, c.pollInterval)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			c.log.Error().Err(err).Msg("fetch results failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.pollInterval):
			}
			continue
		}

		for _, delivery := range deliveries {
			c.dispatch(delivery)
		}

		c.mu.Lock()
		for _, entry := range c.pending {
			entry.polls++
		}
		c.mu.Unlock()
	}
}

// Register inserts the pending entry for a frame. Call it before the
// frame is published so the result cannot outrun the registration. A
// frame can be registered by at most one caller at a time.
func (c *ResultCollector) Register(frameID string, deadline time.Time) (*Await, error) {
	entry := &pendingEntry{
		frameID:     frameID,
		submittedAt: time.Now().UTC(),
		deadline:    deadline,
		resultCh:    make(chan entity.RecognitionResult, 1),
	}

	c.mu.Lock()
	if _, exists := c.pending[frameID]; exists {
		c.mu.Unlock()
		return nil, fmt.Errorf("frame %s is already pending", frameID)
	}
	c.pending[frameID] = entry
	c.mu.Unlock()

	return &Await{collector: c, entry: entry}, nil
}

// Wait blocks until the terminal result arrives, the deadline passes,
// or the context is canceled. The pending entry is destroyed on every
// exit path.
func (a *Await) Wait(ctx context.Context) (*entity.RecognitionResult, error) {
	c := a.collector
	entry := a.entry

	timer := time.NewTimer(time.Until(entry.deadline))
	defer timer.Stop()

	select {
	case result := <-entry.resultCh:
		return &result, nil
	case <-timer.C:
		c.evict(entry.frameID)
		// A dispatch may have slipped in between the timer firing and the
		// eviction; prefer the real result over a timeout.
		select {
		case result := <-entry.resultCh:
			return &result, nil
		default:
		}
		// entry left the map in evict, so polls is quiescent here.
		c.log.Warn().
			Str("frame_id", entry.frameID).
			Dur("waited", time.Since(entry.submittedAt)).
			Int("polls", entry.polls).
			Msg("deadline expired, evicting")
		return nil, ErrTimeout
	case <-ctx.Done():
		c.evict(entry.frameID)
		return nil, ctx.Err()
	}
}

// AwaitResult registers the frame and waits for its result in one call.
// Only safe when the frame is published after this call began; when the
// publish happens in the caller, use Register first and Wait after.
func (c *ResultCollector) AwaitResult(ctx context.Context, frameID string, deadline time.Time) (*entity.RecognitionResult, error) {
	await, err := c.Register(frameID, deadline)
	if err != nil {
		return nil, err
	}
	return await.Wait(ctx)
}

// PendingCount reports how many frames are currently awaited.
func (c *ResultCollector) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// dispatch routes one result message. Acceptance removes the pending
// entry before the send so a frame can never be surfaced twice; late or
// duplicate messages find no entry and are discarded.
func (c *ResultCollector) dispatch(delivery port.Delivery) {
	var result entity.RecognitionResult
	if err := json.Unmarshal(delivery.Payload(), &result); err != nil {
		c.log.Warn().Err(err).Msg("discarding undecodable result")
		c.ack(delivery)
		return
	}

	c.mu.Lock()
	entry, accepted := c.pending[result.FrameID]
	if accepted {
		delete(c.pending, result.FrameID)
	}
	c.mu.Unlock()

	if !accepted {
		c.log.Debug().Str("frame_id", result.FrameID).Msg("duplicate or unknown result discarded")
		c.ack(delivery)
		return
	}

	entry.resultCh <- result
	c.ack(delivery)
}

// evict drops the pending entry for a frame, if it still exists.
func (c *ResultCollector) evict(frameID string) {
	c.mu.Lock()
	delete(c.pending, frameID)
	c.mu.Unlock()
}

func (c *ResultCollector) ack(delivery port.Delivery) {
	if err := delivery.Ack(); err != nil {
		c.log.Warn().Err(err).Msg("ack failed")
	}
}
