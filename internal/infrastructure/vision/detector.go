//go:build gocv
// +build gocv

package vision

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"facelink/internal/domain/entity"
	"facelink/internal/domain/port"
)

// HaarDetector finds faces with an OpenCV Haar cascade. Detection runs one
// frame at a time to bound resource use on constrained edge hardware;
// cross-device parallelism belongs to separate detector instances.
type HaarDetector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	MaxSide    int // frames larger than this are scaled down before detection
	MinSize    int // regions smaller than this many pixels per side are ignored
}

// NewHaarDetector loads the cascade file and returns a ready detector.
func NewHaarDetector(cascadeFile string) (*HaarDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cascadeFile) {
		classifier.Close()
		return nil, fmt.Errorf("load cascade %q failed", cascadeFile)
	}
	return &HaarDetector{
		classifier: classifier,
		MaxSide:    1024,
		MinSize:    20,
	}, nil
}

// Detect decodes the image, runs the cascade and returns one cropped
// region per face found.
func (d *HaarDetector) Detect(ctx context.Context, imageData []byte) ([]entity.Region, error) {
	_ = ctx
	d.mu.Lock()
	defer d.mu.Unlock()

	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	// Scale down oversized frames for stable cascade behavior.
	if mat.Cols() > d.MaxSide || mat.Rows() > d.MaxSide {
		scale := float64(d.MaxSide) / float64(maxInt(mat.Cols(), mat.Rows()))
		newW := int(float64(mat.Cols()) * scale)
		newH := int(float64(mat.Rows()) * scale)
		resized := gocv.NewMat()
		gocv.Resize(mat, &resized, image.Pt(newW, newH), 0, 0, gocv.InterpolationArea)
		mat.Close()
		mat = resized
	}

	rects := d.classifier.DetectMultiScale(mat)
	regions := make([]entity.Region, 0, len(rects))
	for _, rect := range rects {
		if rect.Dx() < d.MinSize || rect.Dy() < d.MinSize {
			continue
		}
		bounded := rect.Intersect(image.Rect(0, 0, mat.Cols(), mat.Rows()))
		if bounded.Empty() {
			continue
		}

		crop := mat.Region(bounded)
		buf, err := gocv.IMEncode(gocv.JPEGFileExt, crop)
		crop.Close()
		if err != nil {
			return nil, fmt.Errorf("encode face crop: %w", err)
		}
		data := make([]byte, len(buf.GetBytes()))
		copy(data, buf.GetBytes())
		buf.Close()

		regions = append(regions, entity.Region{
			X:      bounded.Min.X,
			Y:      bounded.Min.Y,
			Width:  bounded.Dx(),
			Height: bounded.Dy(),
			Data:   data,
		})
	}

	return regions, nil
}

// Close releases the cascade.
func (d *HaarDetector) Close() error {
	return d.classifier.Close()
}

// decodeToMat turns encoded image bytes into a gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), port.ErrMalformedImage
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

var _ port.FaceDetector = (*HaarDetector)(nil)
