package port

import (
	"context"

	"facelink/internal/domain/entity"
)

// FaceRecognizer matches a cropped face region against known identities.
type FaceRecognizer interface {
	// Recognize returns the closest identity with its confidence, or nil
	// when no candidate exists (for example, no face in the crop).
	// Thresholding is the caller's decision, not the recognizer's.
	Recognize(ctx context.Context, regionData []byte) (*entity.Identity, error)
}
