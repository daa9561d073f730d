package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"facelink/config"
	app "facelink/internal/application"
	"facelink/internal/container"
	"facelink/internal/domain/entity"
	"facelink/internal/infrastructure/channel"
	"facelink/internal/infrastructure/ingest"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "client").Logger()

	imagePath := flag.String("image", "", "path of the image to submit")
	flag.Parse()
	if *imagePath == "" {
		logger.Fatal().Msg("-image is required")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.DeviceID == "" {
		logger.Fatal().Msg("DEVICE_ID is required")
	}

	payload, err := os.ReadFile(*imagePath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *imagePath).Msg("failed to read image")
	}

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		logger.Fatal().Err(err).Str("url", cfg.NATSURL).Msg("failed to connect to NATS")
	}
	defer nc.Close()

	results, err := channel.NewNATSChannel(nc, cfg.ResultStream, cfg.ResultSubject, "result-collector", cfg.RedeliveryWindow)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open result channel")
	}
	defer results.Close()

	source, err := ingest.NewFrameSource(cfg.MQTTBroker, "facelink-client-"+cfg.DeviceID, cfg.DeviceID, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MQTT broker")
	}
	defer source.Close()

	c := container.New(container.Deps{
		Results:      results,
		PollInterval: cfg.PollInterval,
		Log:          logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := c.Collector.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("collector stopped")
		}
	}()

	frame := entity.NewFrame(cfg.DeviceID, payload)

	// Register before publishing so a fast result cannot arrive ahead of
	// the pending entry and be discarded as unknown.
	await, err := c.Collector.Register(frame.ID, time.Now().Add(cfg.ResultDeadline))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to register frame")
	}
	if err := source.PublishFrame(ctx, frame); err != nil {
		logger.Fatal().Err(err).Msg("failed to publish frame")
	}
	logger.Info().Str("frame_id", frame.ID).Msg("frame published, awaiting result")

	result, err := await.Wait(ctx)
	if err != nil {
		if errors.Is(err, app.ErrTimeout) {
			logger.Fatal().Str("frame_id", frame.ID).Dur("deadline", cfg.ResultDeadline).Msg("timed out waiting for result")
		}
		logger.Fatal().Err(err).Msg("await failed")
	}

	event := logger.Info().
		Str("frame_id", result.FrameID).
		Str("outcome", string(result.Outcome))
	switch result.Outcome {
	case entity.OutcomeMatch:
		event = event.Str("identity", result.Identity).Float64("confidence", result.Confidence)
	case entity.OutcomeNoMatch:
		event = event.Float64("confidence", result.Confidence)
	case entity.OutcomeError:
		event = event.Str("error_kind", string(result.ErrorKind))
	}
	event.Msg("terminal result")
}
