package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/inventory-balance/internal/api"
	"github.com/andresuchdata/inventory-balance/internal/config"
	"github.com/andresuchdata/inventory-balance/internal/metrics"
	"github.com/andresuchdata/inventory-balance/internal/service"
	"github.com/andresuchdata/inventory-balance/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Log.Level)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rec := metrics.NewRecorder()
	balanceService, err := service.NewFromConfig(ctx, cfg, rec)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize balance service")
	}

	if err := prepare(ctx, balanceService); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load balance snapshot")
	}

	router := api.NewRouter(&api.Services{
		BalanceService: balanceService,
		Metrics:        rec,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}

	logger.Log.Info().Msg("Server exiting")
}

// prepare loads the snapshot before the server accepts requests. A snapshot
// that cannot be loaded is fatal; POST /reload only recovers a running server.
func prepare(ctx context.Context, svc *service.BalanceService) error {
	list, err := svc.Warehouses(ctx)
	if err != nil {
		return err
	}
	logger.Log.Info().
		Int("warehouses", len(list.Warehouses)).
		Int("records", list.Records).
		Msg("Snapshot ready")

	if svc.WarmEnabled() {
		if _, err := svc.Warm(ctx); err != nil {
			logger.Log.Warn().Err(err).Msg("Report cache warm-up incomplete")
		}
	}
	return nil
}
