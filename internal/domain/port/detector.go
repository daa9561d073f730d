package port

import (
	"context"
	"errors"

	"facelink/internal/domain/entity"
)

// ErrMalformedImage is returned by a FaceDetector when the payload cannot
// be decoded as an image. The gate maps it to a decode-failure outcome
// rather than a detection failure.
var ErrMalformedImage = errors.New("malformed image payload")

// FaceDetector finds face regions in an encoded image.
type FaceDetector interface {
	// Detect returns the face regions found in the image, each carrying
	// its cropped data. An empty slice means no subject is present.
	Detect(ctx context.Context, imageData []byte) ([]entity.Region, error)
}
