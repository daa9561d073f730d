package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"facelink/internal/domain/entity"
	"facelink/internal/domain/port"
)

// DetectionGate decides locally whether a frame is worth a cloud round
// trip. Frames with no face short-circuit straight to the result channel;
// frames with a face forward exactly one recognition request. Every input
// frame causes exactly one publish, to exactly one channel, and the gate
// never retries: redelivery is the caller's decision.
type DetectionGate struct {
	detector port.FaceDetector
	requests port.Publisher
	results  port.Publisher
	archiver port.CropArchiver
	log      zerolog.Logger
}

// NewDetectionGate wires the gate. archiver may be nil when no crop
// archive is configured.
func NewDetectionGate(detector port.FaceDetector, requests, results port.Publisher, archiver port.CropArchiver, log zerolog.Logger) *DetectionGate {
	return &DetectionGate{
		detector: detector,
		requests: requests,
		results:  results,
		archiver: archiver,
		log:      log.With().Str("component", "gate").Logger(),
	}
}

// Process runs detection on one frame and publishes either its terminal
// result or a recognition request. Detector failures become terminal
// error outcomes, not crashes.
func (g *DetectionGate) Process(ctx context.Context, frame entity.Frame) error {
	logger := g.log.With().Str("frame_id", frame.ID).Logger()

	if len(frame.Payload) == 0 {
		logger.Warn().Msg("frame has no payload")
		return g.publishResult(ctx, entity.NewErrorResult(frame.ID, frame.DeviceID, entity.ErrorDecodeFailure))
	}

	regions, err := g.detector.Detect(ctx, frame.Payload)
	if err != nil {
		kind := entity.ErrorDetectionFailure
		if errors.Is(err, port.ErrMalformedImage) {
			kind = entity.ErrorDecodeFailure
		}
		logger.Warn().Err(err).Str("error_kind", string(kind)).Msg("detection failed")
		return g.publishResult(ctx, entity.NewErrorResult(frame.ID, frame.DeviceID, kind))
	}

	region, found := entity.DensestRegion(regions)
	if !found {
		logger.Debug().Msg("no subject, short-circuiting")
		return g.publishResult(ctx, entity.NewNoSubjectResult(frame.ID, frame.DeviceID))
	}

	request := entity.RecognitionRequest{
		FrameID:    frame.ID,
		DeviceID:   frame.DeviceID,
		RegionData: region.Data,
		EnqueuedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshal recognition request: %w", err)
	}
	if err := g.requests.Publish(ctx, payload); err != nil {
		return fmt.Errorf("publish recognition request: %w", err)
	}
	logger.Info().Int("faces", len(regions)).Int("region_area", region.Area()).Msg("forwarded to recognition")

	if g.archiver != nil {
		if err := g.archiver.Archive(ctx, frame.ID, region.Data); err != nil {
			logger.Warn().Err(err).Msg("crop archive failed")
		}
	}
	return nil
}

// publishResult sends a terminal outcome straight to the result channel.
func (g *DetectionGate) publishResult(ctx context.Context, result entity.RecognitionResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := g.results.Publish(ctx, payload); err != nil {
		return fmt.Errorf("publish result: %w", err)
	}
	return nil
}
