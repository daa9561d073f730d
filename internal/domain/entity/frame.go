package entity

import (
	"time"

	"github.com/google/uuid"
)

// Frame is one unit of sensor input submitted for processing.
type Frame struct {
	ID        string    // correlation identifier, opaque to every stage
	DeviceID  string    // originating capture device
	Payload   []byte    // encoded image bytes
	CreatedAt time.Time // assigned by the publisher
}

// NewFrame creates a frame with a fresh correlation identifier.
func NewFrame(deviceID string, payload []byte) Frame {
	return Frame{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}
