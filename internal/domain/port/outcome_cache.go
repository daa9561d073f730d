package port

import (
	"context"

	"facelink/internal/domain/entity"
)

// OutcomeCache remembers the outcome produced for a frame so a duplicate
// delivery of the same request republishes the identical result without
// re-running the model.
type OutcomeCache interface {
	// Get returns the cached outcome for a frame, or nil when none exists.
	Get(ctx context.Context, frameID string) (*entity.RecognitionResult, error)

	// Put stores the outcome for a frame.
	Put(ctx context.Context, result entity.RecognitionResult) error
}
