package app

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"facelink/internal/domain/entity"
	"facelink/internal/domain/port"
	"facelink/internal/infrastructure/channel"
)

// fakeDetector returns a fixed set of regions or a fixed error.
type fakeDetector struct {
	regions []entity.Region
	err     error
	calls   atomic.Int64
}

func (d *fakeDetector) Detect(ctx context.Context, imageData []byte) ([]entity.Region, error) {
	d.calls.Add(1)
	if d.err != nil {
		return nil, d.err
	}
	return d.regions, nil
}

// fakeRecognizer returns a fixed identity or a fixed error.
type fakeRecognizer struct {
	identity *entity.Identity
	err      error
	calls    atomic.Int64
}

func (r *fakeRecognizer) Recognize(ctx context.Context, regionData []byte) (*entity.Identity, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return r.identity, nil
}

func fetchOne(t *testing.T, ch *channel.MemoryChannel) port.Delivery {
	t.Helper()
	deliveries, err := ch.Fetch(context.Background(), 1, 200*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	return deliveries[0]
}

func decodeResult(t *testing.T, d port.Delivery) entity.RecognitionResult {
	t.Helper()
	var result entity.RecognitionResult
	require.NoError(t, json.Unmarshal(d.Payload(), &result))
	return result
}

func decodeRequest(t *testing.T, d port.Delivery) entity.RecognitionRequest {
	t.Helper()
	var request entity.RecognitionRequest
	require.NoError(t, json.Unmarshal(d.Payload(), &request))
	return request
}

func publishJSON(t *testing.T, ch *channel.MemoryChannel, v interface{}) {
	t.Helper()
	payload, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, ch.Publish(context.Background(), payload))
}
