package container

import (
	"time"

	"github.com/rs/zerolog"

	app "facelink/internal/application"
	"facelink/internal/domain/port"
)

// Deps holds the ports a binary has constructed. Fields a binary does not
// need may stay nil; the matching service is then left out.
type Deps struct {
	Detector   port.FaceDetector
	Recognizer port.FaceRecognizer
	Requests   port.Channel
	Results    port.Channel
	Archiver   port.CropArchiver
	Cache      port.OutcomeCache

	ConfidenceThreshold float64
	PollInterval        time.Duration
	Log                 zerolog.Logger
}

// Container assembles the application services available for the
// provided dependencies.
type Container struct {
	Gate        *app.DetectionGate
	Recognition *app.RecognitionService
	Collector   *app.ResultCollector
}

// New builds every service whose dependencies are present.
func New(deps Deps) *Container {
	c := &Container{}

	if deps.Detector != nil && deps.Requests != nil && deps.Results != nil {
		c.Gate = app.NewDetectionGate(deps.Detector, deps.Requests, deps.Results, deps.Archiver, deps.Log)
	}
	if deps.Recognizer != nil && deps.Requests != nil && deps.Results != nil && deps.Cache != nil {
		c.Recognition = app.NewRecognitionService(deps.Recognizer, deps.Requests, deps.Results, deps.Cache, deps.ConfidenceThreshold, deps.PollInterval, deps.Log)
	}
	if deps.Results != nil && deps.PollInterval > 0 {
		c.Collector = app.NewResultCollector(deps.Results, deps.PollInterval, deps.Log)
	}

	return c
}
