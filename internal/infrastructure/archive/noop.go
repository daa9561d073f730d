package archive

import (
	"context"

	"facelink/internal/domain/port"
)

// NoopArchiver discards crops. Used when no archive endpoint is configured.
type NoopArchiver struct{}

// NewNoopArchiver creates an archiver that drops everything.
func NewNoopArchiver() *NoopArchiver {
	return &NoopArchiver{}
}

// Archive does nothing.
func (a *NoopArchiver) Archive(ctx context.Context, frameID string, crop []byte) error {
	_ = ctx
	_ = frameID
	_ = crop
	return nil
}

var _ port.CropArchiver = (*NoopArchiver)(nil)
