package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/deckforge/deckforge/internal/api"
	"github.com/deckforge/deckforge/internal/config"
	"github.com/deckforge/deckforge/internal/repository/postgres"
	"github.com/deckforge/deckforge/internal/repository/redis"
	"github.com/joho/godotenv"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func setupLogger(cfg config.LoggingConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var sink io.Writer = os.Stderr
	if cfg.File != "" {
		rotated, err := rotatelogs.New(
			cfg.File,
			rotatelogs.WithRotationCount(14),
		)
		if err != nil {
			log.Warn().Err(err).Msg("failed to open rotating log file, using stderr")
		} else {
			sink = io.MultiWriter(os.Stderr, rotated)
		}
	}

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: sink})
	} else {
		log.Logger = log.Output(sink)
	}
}

func main() {
	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded environment from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogger(cfg.Logging)

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("starting DeckForge API server")

	db, err := postgres.NewDB(context.Background(), cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer redisClient.Close()

	deps := api.NewRouter(cfg, db, redisClient)

	// Background workers died with any previous process; their jobs can
	// never complete, so reconcile them before accepting traffic.
	if err := deps.Coordinator.ReconcileStale(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to reconcile stale jobs")
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	deps.Coordinator.StartSweeper(sweepCtx, cfg.Jobs.SweepInterval)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      deps.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Msgf("server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
