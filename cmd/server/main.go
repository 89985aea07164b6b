package main

import (
	"context"
	"fmt"
	"net/http"

	"habbo-tracker/internal/cache"
	"habbo-tracker/internal/config"
	"habbo-tracker/internal/constants"
	"habbo-tracker/internal/database"
	fxmodules "habbo-tracker/internal/fx"
	"habbo-tracker/internal/monitoring"
	"habbo-tracker/internal/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module(fx.Invoke(runServer)),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	trackerServer *server.TrackerServer,
	cfg *config.Config,
	store *database.Store,
	rankingCache *cache.RankingCache,
	logger zerolog.Logger,
) error {
	if err := monitoring.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	sentryEnabled, err := monitoring.InitSentry(cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("sentry init failed, error reporting disabled")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           trackerServer.Router(cfg),
		ReadHeaderTimeout: constants.RequestTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().
					Str("addr", srv.Addr).
					Bool("persistence", store.Available()).
					Bool("ranking_cache", rankingCache != nil).
					Bool("sentry", sentryEnabled).
					Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			shutdownErr := srv.Shutdown(shutdownCtx)

			if err := store.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}
			if err := rankingCache.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing redis connection")
			}
			if sentryEnabled {
				monitoring.FlushSentry()
			}

			if shutdownErr != nil {
				logger.Error().Err(shutdownErr).Msg("server shutdown failed")
				return shutdownErr
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
	return nil
}
