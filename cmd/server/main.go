package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agenthub/agenthub-api/internal/auth"
	"github.com/agenthub/agenthub-api/internal/config"
	"github.com/agenthub/agenthub-api/internal/db"
	"github.com/agenthub/agenthub-api/internal/facade"
	"github.com/agenthub/agenthub-api/internal/mcp"
	"github.com/agenthub/agenthub-api/internal/notify"
	"github.com/agenthub/agenthub-api/internal/repository/postgres"
)

func main() {
	// Configure structured logging
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = log.With().Str("service", "agenthub-api").Logger()

	cfg := config.Load()

	// Pretty logging for local dev (only when explicitly set to "dev")
	if cfg.DevMode {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	pool, err := db.Open(ctx, cfg.DatabaseURL, cfg.PoolMaxConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	// Schema evolutions run before anything touches the tables; a failed
	// migration halts startup.
	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	verifier := auth.NewVerifier(auth.Config{
		PlatformIssuer:   cfg.PlatformIssuer,
		JWKSURL:          cfg.JWKSURL,
		PlatformAudience: cfg.PlatformAudience,
		APITokenSecret:   cfg.APITokenSecret,
		ClockSkew:        cfg.ClockSkew,
	})

	if cfg.PlatformIssuer != "" {
		log.Info().Str("issuer", cfg.PlatformIssuer).Str("audience", cfg.PlatformAudience).
			Msg("platform OIDC authentication enabled")
	}
	if cfg.APITokenSecret != "" {
		log.Info().Msg("API token authentication enabled")
	}

	store := postgres.NewStore(pool)
	hub := notify.NewHub()
	sink := notify.Multi{notify.LogSink{}, hub}

	facades := facade.New(store, sink, facade.Options{
		CacheTTL:           cfg.FacadeCacheTTL,
		ContextCacheTTL:    cfg.ContextCacheTTL,
		MaxDependencyEdges: cfg.MaxDependencyEdges,
	})

	// Facade cache entries must not survive a schema migration.
	facades.Reset()

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	facades.Contexts().Start(workerCtx)

	server := mcp.NewServer(cfg, verifier, facades, store, hub)

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("shutting down")
		stopWorkers()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown error")
		}
	}()

	if err := server.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
}
