//go:build !face
// +build !face

package vision

import (
	"context"
	"errors"

	"facelink/internal/domain/entity"
	"facelink/internal/domain/port"
)

// GalleryRecognizer stub for builds without dlib.
type GalleryRecognizer struct{}

// NewGalleryRecognizer validates the manifest and returns a stub when
// built without the face tag.
func NewGalleryRecognizer(modelsDir, manifestPath string) (*GalleryRecognizer, error) {
	_ = modelsDir
	if _, err := LoadGalleryManifest(manifestPath); err != nil {
		return nil, err
	}
	return &GalleryRecognizer{}, nil
}

// Recognize returns an error when built without the face tag.
func (g *GalleryRecognizer) Recognize(ctx context.Context, regionData []byte) (*entity.Identity, error) {
	_ = ctx
	_ = regionData
	return nil, errors.New("face build tag is not enabled")
}

// Close is a no-op for the stub.
func (g *GalleryRecognizer) Close() error {
	return nil
}

var _ port.FaceRecognizer = (*GalleryRecognizer)(nil)
