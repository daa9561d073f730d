package storage

import (
	"context"
	"sync"

	"facelink/internal/domain/entity"
	"facelink/internal/domain/port"
)

// MemoryOutcomeCache is an in-memory outcome store keyed by frame id. A
// duplicate delivery of a request finds the first outcome here and
// republishes it unchanged.
type MemoryOutcomeCache struct {
	mu       sync.RWMutex
	outcomes map[string]entity.RecognitionResult
}

// NewMemoryOutcomeCache creates an empty cache.
func NewMemoryOutcomeCache() *MemoryOutcomeCache {
	return &MemoryOutcomeCache{
		outcomes: make(map[string]entity.RecognitionResult),
	}
}

// Get returns the cached outcome for a frame, or nil when none exists.
func (c *MemoryOutcomeCache) Get(ctx context.Context, frameID string) (*entity.RecognitionResult, error) {
	_ = ctx
	c.mu.RLock()
	defer c.mu.RUnlock()

	result, exists := c.outcomes[frameID]
	if !exists {
		return nil, nil
	}
	return &result, nil
}

// Put stores the outcome for a frame. The first write wins: under racing
// duplicate deliveries both producers hold the same-outcome result, so
// keeping the earlier entry never changes what the caller observes.
func (c *MemoryOutcomeCache) Put(ctx context.Context, result entity.RecognitionResult) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.outcomes[result.FrameID]; !exists {
		c.outcomes[result.FrameID] = result
	}
	return nil
}

// Len reports the number of cached outcomes.
func (c *MemoryOutcomeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.outcomes)
}

var _ port.OutcomeCache = (*MemoryOutcomeCache)(nil)
