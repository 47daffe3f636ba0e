package cache

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/inventory-balance/internal/config"
)

const (
	defaultReportTTL       = 5 * time.Minute
	defaultReportKeyPrefix = "balance:report"
	reportScanBatchSize    = 100
	redisPingTimeout       = 5 * time.Second
)

// reportStore is the redis connection of the report cache together with the
// namespace and expiry every report entry is written with.
type reportStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func newReportStore(cfg config.CacheConfig) (*reportStore, error) {
	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &reportStore{
		client: client,
		ttl:    reportTTL(cfg),
		prefix: reportPrefix(cfg),
	}, nil
}

func reportTTL(cfg config.CacheConfig) time.Duration {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		return defaultReportTTL
	}
	return ttl
}

func reportPrefix(cfg config.CacheConfig) string {
	prefix := strings.TrimRight(strings.TrimSpace(cfg.KeyPrefix), ":")
	if prefix == "" {
		return defaultReportKeyPrefix
	}
	return prefix
}

func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host := cfg.RedisHost
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

// purge unlinks every report key of this store's namespace.
func (s *reportStore) purge(ctx context.Context) error {
	var cursor uint64
	pattern := s.prefix + ":*"
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, reportScanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan failed: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Unlink(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis unlink failed: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
