package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"facelink/config"
	"facelink/internal/container"
	"facelink/internal/domain/entity"
	"facelink/internal/domain/port"
	"facelink/internal/infrastructure/archive"
	"facelink/internal/infrastructure/channel"
	"facelink/internal/infrastructure/ingest"
	"facelink/internal/infrastructure/vision"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "edge").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.DeviceID == "" {
		logger.Fatal().Msg("DEVICE_ID is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		logger.Fatal().Err(err).Str("url", cfg.NATSURL).Msg("failed to connect to NATS")
	}
	defer nc.Close()

	requests, err := channel.NewNATSChannel(nc, cfg.RequestStream, cfg.RequestSubject, "recognition-workers", cfg.RedeliveryWindow)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open request channel")
	}
	results, err := channel.NewNATSChannel(nc, cfg.ResultStream, cfg.ResultSubject, "result-collector", cfg.RedeliveryWindow)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open result channel")
	}

	detector, err := vision.NewHaarDetector(cfg.CascadeFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load detector")
	}
	defer detector.Close()

	var archiver port.CropArchiver
	if cfg.ArchiveEnabled() {
		archiver, err = archive.NewMinioArchiver(ctx, archive.Options{
			Endpoint:  cfg.ArchiveEndpoint,
			AccessKey: cfg.ArchiveAccessKey,
			SecretKey: cfg.ArchiveSecretKey,
			Bucket:    cfg.ArchiveBucket,
			Region:    cfg.ArchiveRegion,
			Secure:    cfg.ArchiveSecure,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect crop archive")
		}
	}

	c := container.New(container.Deps{
		Detector: detector,
		Requests: requests,
		Results:  results,
		Archiver: archiver,
		Log:      logger,
	})

	source, err := ingest.NewFrameSource(cfg.MQTTBroker, "facelink-edge-"+cfg.DeviceID, cfg.DeviceID, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MQTT broker")
	}
	defer source.Close()

	// One detection at a time per device: every frame for this device
	// funnels through a single processing goroutine.
	frames := make(chan entity.Frame, 16)
	if err := source.Subscribe(ctx, func(ctx context.Context, frame entity.Frame) {
		select {
		case frames <- frame:
		case <-ctx.Done():
		}
	}); err != nil {
		logger.Fatal().Err(err).Msg("failed to subscribe to frame topic")
	}

	logger.Info().Str("device_id", cfg.DeviceID).Str("topic", source.Topic()).Msg("detection gate is running")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down")
			return
		case frame := <-frames:
			if err := c.Gate.Process(ctx, frame); err != nil {
				logger.Error().Err(err).Str("frame_id", frame.ID).Msg("frame processing failed")
			}
		}
	}
}
