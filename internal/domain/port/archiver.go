package port

import "context"

// CropArchiver stores forwarded face crops for later review. Archiving is
// best-effort; a failure never blocks the pipeline.
type CropArchiver interface {
	Archive(ctx context.Context, frameID string, crop []byte) error
}
