package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/fitplan/fitplan/internal/config"
	"github.com/fitplan/fitplan/internal/llm"
	"github.com/fitplan/fitplan/internal/logging"
	"github.com/fitplan/fitplan/internal/server"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info", false)
		log.Fatal().Err(err).Msg("Could not load configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.IsProduction())

	provider, err := llm.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not initialize model provider")
	}

	apiServer := server.NewServer(cfg, provider)

	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Str("addr", apiServer.Addr).
			Str("provider", cfg.Provider).
			Str("model", cfg.Model).
			Msg("Workout plan generator listening")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
		stop() // Allow Ctrl+C to force shutdown

		// The server has shutdownTimeout to finish the request it is currently handling.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("http server error")
	}
	log.Info().Msg("Graceful shutdown complete.")
}
