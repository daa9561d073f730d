//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"facelink/internal/domain/entity"
	"facelink/internal/domain/port"
)

// HaarDetector stub for builds without OpenCV.
type HaarDetector struct {
	MaxSide int
	MinSize int
}

// NewHaarDetector returns a stub detector when built without the gocv tag.
func NewHaarDetector(cascadeFile string) (*HaarDetector, error) {
	_ = cascadeFile
	return &HaarDetector{MaxSide: 1024, MinSize: 20}, nil
}

// Detect returns an error when built without the gocv tag.
func (d *HaarDetector) Detect(ctx context.Context, imageData []byte) ([]entity.Region, error) {
	_ = ctx
	_ = imageData
	return nil, errors.New("gocv build tag is not enabled")
}

// Close is a no-op for the stub.
func (d *HaarDetector) Close() error {
	return nil
}

var _ port.FaceDetector = (*HaarDetector)(nil)
