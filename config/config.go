package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the externally supplied settings for every binary.
// Values come from the environment, optionally seeded from a .env file.
type Config struct {
	// Channels
	NATSURL          string
	RequestStream    string
	RequestSubject   string
	ResultStream     string
	ResultSubject    string
	RedeliveryWindow time.Duration // consumer AckWait; an unacked delivery comes back after this

	// Ingestion
	MQTTBroker string
	DeviceID   string

	// Models
	CascadeFile         string
	FaceModelsDir       string
	GalleryManifest     string
	ConfidenceThreshold float64

	// Collector
	PollInterval   time.Duration
	ResultDeadline time.Duration

	// Crop archive (optional; disabled when endpoint is empty)
	ArchiveEndpoint  string
	ArchiveAccessKey string
	ArchiveSecretKey string
	ArchiveBucket    string
	ArchiveRegion    string
	ArchiveSecure    bool
}

// Load reads configuration from the environment. A missing .env file is
// not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		NATSURL:          envStr("NATS_URL", "nats://127.0.0.1:4222"),
		RequestStream:    envStr("REQUEST_STREAM", "RECOGNITION_REQUESTS"),
		RequestSubject:   envStr("REQUEST_SUBJECT", "recognition.requests"),
		ResultStream:     envStr("RESULT_STREAM", "RECOGNITION_RESULTS"),
		ResultSubject:    envStr("RESULT_SUBJECT", "recognition.results"),
		MQTTBroker:       envStr("MQTT_BROKER", "tcp://127.0.0.1:1883"),
		DeviceID:         envStr("DEVICE_ID", ""),
		CascadeFile:      envStr("CASCADE_FILE", "cascade/haarcascade_frontalface_alt.xml"),
		FaceModelsDir:    envStr("FACE_MODELS_DIR", "models"),
		GalleryManifest:  envStr("GALLERY_MANIFEST", "gallery.yaml"),
		ArchiveEndpoint:  envStr("ARCHIVE_ENDPOINT", ""),
		ArchiveAccessKey: envStr("ARCHIVE_ACCESS_KEY", ""),
		ArchiveSecretKey: envStr("ARCHIVE_SECRET_KEY", ""),
		ArchiveBucket:    envStr("ARCHIVE_BUCKET", "face-crops"),
		ArchiveRegion:    envStr("ARCHIVE_REGION", "us-east-1"),
	}

	var err error
	if cfg.ConfidenceThreshold, err = envFloat("CONFIDENCE_THRESHOLD", 0.6); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = envDuration("POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.ResultDeadline, err = envDuration("RESULT_DEADLINE", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RedeliveryWindow, err = envDuration("REDELIVERY_WINDOW", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ArchiveSecure, err = envBool("ARCHIVE_SECURE", false); err != nil {
		return nil, err
	}

	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("CONFIDENCE_THRESHOLD must be in [0, 1], got %v", cfg.ConfidenceThreshold)
	}

	return cfg, nil
}

// ArchiveEnabled reports whether a crop archive endpoint is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveEndpoint != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}
