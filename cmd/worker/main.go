package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"facelink/config"
	"facelink/internal/container"
	"facelink/internal/infrastructure/channel"
	"facelink/internal/infrastructure/storage"
	"facelink/internal/infrastructure/vision"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "worker").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		logger.Fatal().Err(err).Str("url", cfg.NATSURL).Msg("failed to connect to NATS")
	}
	defer nc.Close()

	// Workers share one durable consumer, so instances load-balance the
	// request channel. The AckWait is the redelivery window.
	requests, err := channel.NewNATSChannel(nc, cfg.RequestStream, cfg.RequestSubject, "recognition-workers", cfg.RedeliveryWindow)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open request channel")
	}
	defer requests.Close()

	results, err := channel.NewNATSChannel(nc, cfg.ResultStream, cfg.ResultSubject, "result-collector", cfg.RedeliveryWindow)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open result channel")
	}

	recognizer, err := vision.NewGalleryRecognizer(cfg.FaceModelsDir, cfg.GalleryManifest)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load recognizer")
	}
	defer recognizer.Close()

	c := container.New(container.Deps{
		Recognizer:          recognizer,
		Requests:            requests,
		Results:             results,
		Cache:               storage.NewMemoryOutcomeCache(),
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		PollInterval:        cfg.PollInterval,
		Log:                 logger,
	})

	logger.Info().Float64("threshold", cfg.ConfidenceThreshold).Msg("recognition worker is running")

	if err := c.Recognition.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker stopped")
	}
	logger.Info().Msg("shutting down")
}
