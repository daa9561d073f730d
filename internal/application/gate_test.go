package app

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"facelink/internal/domain/entity"
	"facelink/internal/domain/port"
	"facelink/internal/infrastructure/channel"
)

func newTestGate(detector port.FaceDetector) (*DetectionGate, *channel.MemoryChannel, *channel.MemoryChannel) {
	requests := channel.NewMemoryChannel()
	results := channel.NewMemoryChannel()
	gate := NewDetectionGate(detector, requests, results, nil, zerolog.Nop())
	return gate, requests, results
}

func TestDetectionGate_NoSubjectShortCircuits(t *testing.T) {
	gate, requests, results := newTestGate(&fakeDetector{})
	frame := entity.NewFrame("cam-1", []byte("jpeg-bytes"))

	require.NoError(t, gate.Process(context.Background(), frame))

	result := decodeResult(t, fetchOne(t, results))
	require.Equal(t, frame.ID, result.FrameID)
	require.Equal(t, entity.OutcomeNoSubject, result.Outcome)
	require.Zero(t, requests.Len(), "no request may reach the request channel")
}

func TestDetectionGate_ForwardsDensestRegion(t *testing.T) {
	detector := &fakeDetector{regions: []entity.Region{
		{X: 0, Y: 0, Width: 10, Height: 10, Data: []byte("small")},
		{X: 5, Y: 5, Width: 40, Height: 40, Data: []byte("large")},
	}}
	gate, requests, results := newTestGate(detector)
	frame := entity.NewFrame("cam-1", []byte("jpeg-bytes"))

	require.NoError(t, gate.Process(context.Background(), frame))

	request := decodeRequest(t, fetchOne(t, requests))
	require.Equal(t, frame.ID, request.FrameID)
	require.Equal(t, "cam-1", request.DeviceID)
	require.Equal(t, []byte("large"), request.RegionData)
	require.Zero(t, requests.Len(), "exactly one request per frame")
	require.Zero(t, results.Len(), "forwarded frames publish nothing to results")
}

func TestDetectionGate_EmptyPayloadIsDecodeFailure(t *testing.T) {
	detector := &fakeDetector{}
	gate, _, results := newTestGate(detector)
	frame := entity.NewFrame("cam-1", nil)

	require.NoError(t, gate.Process(context.Background(), frame))

	result := decodeResult(t, fetchOne(t, results))
	require.Equal(t, entity.OutcomeError, result.Outcome)
	require.Equal(t, entity.ErrorDecodeFailure, result.ErrorKind)
	require.Zero(t, detector.calls.Load(), "detector must not run on an empty payload")
}

func TestDetectionGate_MalformedImageIsDecodeFailure(t *testing.T) {
	gate, _, results := newTestGate(&fakeDetector{err: port.ErrMalformedImage})
	frame := entity.NewFrame("cam-1", []byte("not-an-image"))

	require.NoError(t, gate.Process(context.Background(), frame))

	result := decodeResult(t, fetchOne(t, results))
	require.Equal(t, entity.OutcomeError, result.Outcome)
	require.Equal(t, entity.ErrorDecodeFailure, result.ErrorKind)
}

func TestDetectionGate_DetectorErrorIsDetectionFailure(t *testing.T) {
	gate, requests, results := newTestGate(&fakeDetector{err: errors.New("cascade exploded")})
	frame := entity.NewFrame("cam-1", []byte("jpeg-bytes"))

	require.NoError(t, gate.Process(context.Background(), frame))

	result := decodeResult(t, fetchOne(t, results))
	require.Equal(t, entity.OutcomeError, result.Outcome)
	require.Equal(t, entity.ErrorDetectionFailure, result.ErrorKind)
	require.Zero(t, requests.Len(), "a failed frame is never forwarded")
}
