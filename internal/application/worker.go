package app

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"facelink/internal/domain/entity"
	"facelink/internal/domain/port"
)

// RecognitionService is the cloud stage: a pull-based consume loop over
// the request channel. It is stateless apart from the outcome cache and
// safe under duplicate delivery: the same frame id always yields the same
// published outcome. Many instances may run in parallel.
type RecognitionService struct {
	recognizer port.FaceRecognizer
	requests   port.Consumer
	results    port.Publisher
	cache      port.OutcomeCache
	threshold  float64
	batchSize  int
	pollWait   time.Duration
	log        zerolog.Logger
}

// NewRecognitionService wires the worker. A face matches when its
// confidence is greater than or equal to threshold. pollWait bounds how
// long a fetch blocks when the request channel is idle.
func NewRecognitionService(recognizer port.FaceRecognizer, requests port.Consumer, results port.Publisher, cache port.OutcomeCache, threshold float64, pollWait time.Duration, log zerolog.Logger) *RecognitionService {
	if pollWait <= 0 {
		pollWait = 2 * time.Second
	}
	return &RecognitionService{
		recognizer: recognizer,
		requests:   requests,
		results:    results,
		cache:      cache,
		threshold:  threshold,
		batchSize:  10,
		pollWait:   pollWait,
		log:        log.With().Str("component", "recognition").Logger(),
	}
}

// Run consumes requests until the context is canceled. One bad message
// never stops the loop.
func (s *RecognitionService) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		deliveries, err := s.requests.Fetch(ctx, s.batchSize, s.pollWait)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			s.log.Error().Err(err).Msg("fetch requests failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.pollWait):
			}
			continue
		}

		for _, delivery := range deliveries {
			s.handle(ctx, delivery)
		}
	}
}

// handle processes one delivery. The ack happens only after the outcome
// reached the result channel, so a crash in between is covered by the
// request channel's redelivery window.
func (s *RecognitionService) handle(ctx context.Context, delivery port.Delivery) {
	var request entity.RecognitionRequest
	if err := json.Unmarshal(delivery.Payload(), &request); err != nil || request.FrameID == "" {
		// No frame id means no caller to answer; redelivering the same
		// undecodable message would loop forever.
		s.log.Warn().Err(err).Msg("discarding undecodable request")
		s.ack(delivery)
		return
	}
	logger := s.log.With().Str("frame_id", request.FrameID).Logger()

	result := s.resolve(ctx, request)

	payload, err := json.Marshal(result)
	if err != nil {
		logger.Error().Err(err).Msg("marshal result failed")
		return
	}
	if err := s.results.Publish(ctx, payload); err != nil {
		// Skipping the ack lets the channel redeliver the request.
		logger.Error().Err(err).Msg("publish result failed, leaving request for redelivery")
		return
	}

	if err := s.cache.Put(ctx, result); err != nil {
		logger.Warn().Err(err).Msg("outcome cache write failed")
	}
	logger.Info().Str("outcome", string(result.Outcome)).Msg("result published")
	s.ack(delivery)
}

// resolve computes the terminal outcome for a request. A cached outcome
// is returned as-is so duplicates republish the identical result.
func (s *RecognitionService) resolve(ctx context.Context, request entity.RecognitionRequest) entity.RecognitionResult {
	if cached, err := s.cache.Get(ctx, request.FrameID); err == nil && cached != nil {
		return *cached
	}

	identity, err := s.recognizer.Recognize(ctx, request.RegionData)
	if err != nil {
		// Failures still flow to the result channel so the caller's wait
		// terminates instead of timing out.
		s.log.Warn().Err(err).Str("frame_id", request.FrameID).Msg("recognition failed")
		return entity.NewErrorResult(request.FrameID, request.DeviceID, entity.ErrorRecognitionFailure)
	}
	if identity == nil {
		return entity.NewNoMatchResult(request.FrameID, request.DeviceID, 0)
	}
	if identity.Confidence >= s.threshold {
		return entity.NewMatchResult(request.FrameID, request.DeviceID, identity.Name, identity.Confidence)
	}
	return entity.NewNoMatchResult(request.FrameID, request.DeviceID, identity.Confidence)
}

func (s *RecognitionService) ack(delivery port.Delivery) {
	if err := delivery.Ack(); err != nil {
		s.log.Warn().Err(err).Msg("ack failed")
	}
}
