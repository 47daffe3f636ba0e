package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/inventory-balance/internal/cache"
	"github.com/andresuchdata/inventory-balance/internal/config"
	"github.com/andresuchdata/inventory-balance/internal/metrics"
	"github.com/andresuchdata/inventory-balance/internal/snapshot"
	"github.com/andresuchdata/inventory-balance/internal/storage"
)

// NewFromConfig wires the snapshot source, the report cache and the export
// publisher described by cfg into a BalanceService.
func NewFromConfig(ctx context.Context, cfg *config.Config, rec *metrics.Recorder) (*BalanceService, error) {
	source, err := snapshot.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("snapshot source: %w", err)
	}

	reports, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("report cache disabled")
		reports = cache.NewNoopReportCache()
	}

	opts := []Option{WithReportCache(reports), WithMetrics(rec)}
	if cfg.Storage.Endpoint != "" && cfg.Storage.Bucket != "" {
		store, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			log.Warn().Err(err).Msg("export publishing disabled")
		} else {
			opts = append(opts, WithPublisher(store))
		}
	}

	log.Info().
		Str("source", source.Describe()).
		Str("policy", cfg.Balance.Policy).
		Bool("cache", cfg.Cache.Enabled).
		Msg("balance service configured")
	return NewBalanceService(cfg, source, opts...)
}
