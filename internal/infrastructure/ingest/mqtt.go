package ingest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"facelink/internal/domain/entity"
)

const frameQoS = 1 // at-least-once from broker to edge

// framePayload is the wire format on the ingestion topic. The image is
// base64-encoded; the publisher assigns the correlation identifier.
type framePayload struct {
	FrameID   string    `json:"frame_id"`
	Encoded   string    `json:"encoded"`
	Filename  string    `json:"filename,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// FrameSource receives frames for one device over MQTT. Each device has
// its own topic, frames/<device_id>.
type FrameSource struct {
	client   mqtt.Client
	deviceID string
	log      zerolog.Logger
}

// NewFrameSource connects to the broker.
func NewFrameSource(brokerURL, clientID, deviceID string, log zerolog.Logger) (*FrameSource, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetCleanSession(false).
		SetKeepAlive(30 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %q: %w", brokerURL, token.Error())
	}

	return &FrameSource{
		client:   client,
		deviceID: deviceID,
		log:      log.With().Str("component", "ingest").Str("device_id", deviceID).Logger(),
	}, nil
}

// Topic returns the device-scoped ingestion topic.
func (s *FrameSource) Topic() string {
	return "frames/" + s.deviceID
}

// Subscribe delivers every incoming frame to handle. A payload without a
// frame id cannot be correlated with any caller, so it is dropped with a
// warning. A payload whose image fails to decode still flows through with
// an empty payload, letting the gate emit the decode-failure outcome.
func (s *FrameSource) Subscribe(ctx context.Context, handle func(context.Context, entity.Frame)) error {
	token := s.client.Subscribe(s.Topic(), frameQoS, func(_ mqtt.Client, msg mqtt.Message) {
		var payload framePayload
		if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
			s.log.Warn().Err(err).Msg("discarding undecodable ingestion message")
			return
		}
		if payload.FrameID == "" {
			s.log.Warn().Msg("discarding frame without frame_id")
			return
		}

		createdAt := payload.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		image, err := base64.StdEncoding.DecodeString(payload.Encoded)
		if err != nil {
			s.log.Warn().Err(err).Str("frame_id", payload.FrameID).Msg("frame image is not valid base64")
			image = nil
		}

		handle(ctx, entity.Frame{
			ID:        payload.FrameID,
			DeviceID:  s.deviceID,
			Payload:   image,
			CreatedAt: createdAt,
		})
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt subscribe %q: %w", s.Topic(), token.Error())
	}
	return nil
}

// PublishFrame sends a frame to the device topic. Used by callers acting
// as the frame publisher.
func (s *FrameSource) PublishFrame(ctx context.Context, frame entity.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(framePayload{
		FrameID:   frame.ID,
		Encoded:   base64.StdEncoding.EncodeToString(frame.Payload),
		CreatedAt: frame.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal frame payload: %w", err)
	}

	if token := s.client.Publish(s.Topic(), frameQoS, false, data); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt publish %q: %w", s.Topic(), token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (s *FrameSource) Close() {
	s.client.Disconnect(250)
}
