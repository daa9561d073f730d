//go:build face
// +build face

package vision

import (
	"context"
	"fmt"
	"math"

	"github.com/Kagami/go-face"

	"facelink/internal/domain/entity"
	"facelink/internal/domain/port"
)

// gallerySample is one reference descriptor with its identity name.
type gallerySample struct {
	name       string
	descriptor face.Descriptor
}

// GalleryRecognizer matches face crops against reference descriptors by
// nearest L2 distance. The model is a pure function of the crop content,
// so duplicate requests naturally produce identical outcomes.
type GalleryRecognizer struct {
	rec     *face.Recognizer
	gallery []gallerySample
}

// NewGalleryRecognizer loads the dlib models and computes reference
// descriptors for every sample in the manifest.
func NewGalleryRecognizer(modelsDir, manifestPath string) (*GalleryRecognizer, error) {
	manifest, err := LoadGalleryManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("init face recognizer: %w", err)
	}

	var gallery []gallerySample
	for _, id := range manifest.Identities {
		for _, sample := range id.Samples {
			f, err := rec.RecognizeSingleFile(sample)
			if err != nil {
				rec.Close()
				return nil, fmt.Errorf("recognize sample %q for %q: %w", sample, id.Name, err)
			}
			if f == nil {
				rec.Close()
				return nil, fmt.Errorf("no face in sample %q for %q", sample, id.Name)
			}
			gallery = append(gallery, gallerySample{name: id.Name, descriptor: f.Descriptor})
		}
	}

	return &GalleryRecognizer{rec: rec, gallery: gallery}, nil
}

// Recognize returns the nearest identity for the crop, or nil when the
// crop contains no recognizable face.
func (g *GalleryRecognizer) Recognize(ctx context.Context, regionData []byte) (*entity.Identity, error) {
	_ = ctx

	f, err := g.rec.RecognizeSingle(regionData)
	if err != nil {
		return nil, fmt.Errorf("compute descriptor: %w", err)
	}
	if f == nil {
		return nil, nil
	}

	bestName := ""
	bestDist := math.MaxFloat64
	for _, sample := range g.gallery {
		dist := euclidean(f.Descriptor, sample.descriptor)
		if dist < bestDist {
			bestDist = dist
			bestName = sample.name
		}
	}

	return &entity.Identity{
		Name:       bestName,
		Confidence: distanceToConfidence(bestDist),
	}, nil
}

// Close releases the dlib models.
func (g *GalleryRecognizer) Close() error {
	g.rec.Close()
	return nil
}

func euclidean(a, b face.Descriptor) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// distanceToConfidence maps an L2 descriptor distance onto [0, 1].
// Distance 0 is a perfect match; beyond 1.0 the confidence floors at 0.
func distanceToConfidence(dist float64) float64 {
	conf := 1.0 - dist
	if conf < 0 {
		return 0
	}
	return conf
}

var _ port.FaceRecognizer = (*GalleryRecognizer)(nil)
