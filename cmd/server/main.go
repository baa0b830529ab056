package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"ctrdash/config"
	"ctrdash/internal/pipeline"
	"ctrdash/internal/runtime"
	"ctrdash/internal/server"
	"ctrdash/pkg/version"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var (
		configPath      string
		listenAddr      string
		shutdownTimeout time.Duration
	)

	flag.StringVar(&configPath, "config", "", "Path to YAML config file (optional)")
	flag.StringVar(&listenAddr, "listen", "", "Listen address override")
	flag.DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "Graceful shutdown timeout")
	flag.Parse()

	logger := zlog.With().Str("service", "ctrdash").Logger()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			logger.Error().Err(err).Str("path", configPath).Msg("config: failed to load file")
			fmt.Fprintln(os.Stderr, "invalid configuration file")
			os.Exit(1)
		}
		cfg = loaded
	}
	if listenAddr != "" {
		cfg.Server.Listen = listenAddr
	}

	sampleStart, sampleEnd, err := cfg.SampleRange()
	if err != nil {
		logger.Error().Err(err).Msg("config: invalid sample range")
		os.Exit(1)
	}

	limits := runtime.NewLimits(cfg.Limits.MaxConcurrentRequests, cfg.Limits.MaxConcurrentIngestions)
	limits.MaxUploadBytes = cfg.Server.MaxUploadBytes
	limits.OperationTimeout = cfg.Limits.OperationTimeout
	limits.AcquireRequestTimeout = cfg.Limits.AcquireRequestTimeout
	controller := runtime.NewController(limits)

	runner := pipeline.NewRunner(logger)
	handler := server.NewDashboardHandler(runner, controller, logger, sampleStart, sampleEnd)

	app := fiber.New(fiber.Config{
		BodyLimit:             int(cfg.Server.MaxUploadBytes) + 1024,
		DisableStartupMessage: true,
	})
	app.Use(server.RequestGuard(controller))
	handler.Register(app)

	logger.Info().
		Str("version", version.Version()).
		Str("listen", cfg.Server.Listen).
		Int("max_concurrent_requests", limits.MaxConcurrentRequests).
		Int("max_concurrent_ingestions", limits.MaxConcurrentIngestions).
		Msg("server bootstrap configured")

	go func() {
		if err := app.Listen(cfg.Server.Listen); err != nil {
			logger.Error().Err(err).Msg("fiber stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("fiber shutdown error")
	}
	logger.Info().Msg("server exiting")
}
