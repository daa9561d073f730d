package entity

import "time"

// OutcomeKind classifies the terminal outcome for a frame.
type OutcomeKind string

const (
	OutcomeNoSubject OutcomeKind = "no_subject" // no face found at the edge
	OutcomeMatch     OutcomeKind = "match"      // identity recognized above threshold
	OutcomeNoMatch   OutcomeKind = "no_match"   // face found but no identity above threshold
	OutcomeError     OutcomeKind = "error"      // processing failure, see ErrorKind
)

// ErrorKind names the failure class carried by an error outcome.
type ErrorKind string

const (
	ErrorDecodeFailure      ErrorKind = "decode_failure"      // malformed frame payload
	ErrorDetectionFailure   ErrorKind = "detection_failure"   // local detector error
	ErrorRecognitionFailure ErrorKind = "recognition_failure" // cloud model or infra error
)

// RecognitionRequest is the message forwarded from the edge to the cloud
// when at least one face was detected locally. Exactly one request is
// created per forwarded frame.
type RecognitionRequest struct {
	FrameID    string    `json:"frame_id"`
	DeviceID   string    `json:"device_id"`
	RegionData []byte    `json:"region_data"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// RecognitionResult is the terminal outcome for a frame, carried on the
// result channel. Duplicate emissions of the same outcome may occur under
// at-least-once delivery and must be safe to receive more than once.
type RecognitionResult struct {
	FrameID    string      `json:"frame_id"`
	DeviceID   string      `json:"device_id"`
	Outcome    OutcomeKind `json:"outcome_kind"`
	Identity   string      `json:"identity,omitempty"`
	Confidence float64     `json:"confidence,omitempty"`
	ErrorKind  ErrorKind   `json:"error_kind,omitempty"`
	ProducedAt time.Time   `json:"produced_at"`
}

// Identity is a recognized subject with the model's confidence.
type Identity struct {
	Name       string
	Confidence float64
}

// NewNoSubjectResult builds the short-circuit outcome emitted by the edge
// when no face is present.
func NewNoSubjectResult(frameID, deviceID string) RecognitionResult {
	return RecognitionResult{
		FrameID:    frameID,
		DeviceID:   deviceID,
		Outcome:    OutcomeNoSubject,
		ProducedAt: time.Now().UTC(),
	}
}

// NewMatchResult builds a positive recognition outcome.
func NewMatchResult(frameID, deviceID, identity string, confidence float64) RecognitionResult {
	return RecognitionResult{
		FrameID:    frameID,
		DeviceID:   deviceID,
		Outcome:    OutcomeMatch,
		Identity:   identity,
		Confidence: confidence,
		ProducedAt: time.Now().UTC(),
	}
}

// NewNoMatchResult builds the outcome for a face that matched no known identity.
func NewNoMatchResult(frameID, deviceID string, confidence float64) RecognitionResult {
	return RecognitionResult{
		FrameID:    frameID,
		DeviceID:   deviceID,
		Outcome:    OutcomeNoMatch,
		Confidence: confidence,
		ProducedAt: time.Now().UTC(),
	}
}

// NewErrorResult builds a terminal failure outcome. Failures are routed
// through the result channel like any other outcome so the caller's wait
// terminates instead of timing out.
func NewErrorResult(frameID, deviceID string, kind ErrorKind) RecognitionResult {
	return RecognitionResult{
		FrameID:    frameID,
		DeviceID:   deviceID,
		Outcome:    OutcomeError,
		ErrorKind:  kind,
		ProducedAt: time.Now().UTC(),
	}
}
