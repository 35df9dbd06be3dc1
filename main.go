package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rempah/internal/app"
	"rempah/internal/config"
	"rempah/pkg/logging"
)

func main() {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize application")
	}

	if err := a.StartConsumers(); err != nil {
		logging.Error().Err(err).Msg("failed to start RabbitMQ consumer")
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logging.Info().Str("addr", cfg.AppPort).Str("db", cfg.DBDriver).Msg("starting server")
		if err := a.Fiber.Listen(cfg.AppPort); err != nil {
			logging.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-quit
	logging.Info().Msg("shutting down server")

	if err := a.Fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
		logging.Error().Err(err).Msg("error during Fiber shutdown")
	}
	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.Close(closeCtx); err != nil {
		logging.Error().Err(err).Msg("error closing backends")
	}
	logging.Info().Msg("server gracefully stopped")
}
