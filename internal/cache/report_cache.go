package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/inventory-balance/internal/config"
)

// ReportKey identifies a computed result: the dataset version plus every
// parameter the computation depends on.
type ReportKey struct {
	Dataset      string
	Report       string
	Origin       string
	Destinations []string
	Threshold    int
	Policy       string
	Query        string
}

// ReportCache stores computed reports as JSON.
type ReportCache interface {
	Get(ctx context.Context, key ReportKey, dest interface{}) (bool, error)
	Set(ctx context.Context, key ReportKey, value interface{}) error
	InvalidateAll(ctx context.Context) error
}

type redisReportCache struct {
	store *reportStore
}

type noopReportCache struct{}

// NewReportCache returns a redis-backed cache when enabled, a no-op otherwise.
func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return &noopReportCache{}, nil
	}

	store, err := newReportStore(cfg)
	if err != nil {
		return nil, err
	}
	return &redisReportCache{store: store}, nil
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

// Retains reports whether rc keeps what is stored in it.
func Retains(rc ReportCache) bool {
	if rc == nil {
		return false
	}
	_, noop := rc.(*noopReportCache)
	return !noop
}

func (c *redisReportCache) Get(ctx context.Context, key ReportKey, dest interface{}) (bool, error) {
	payload, err := c.store.client.Get(ctx, buildReportKey(c.store.prefix, key)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode report cache: %w", err)
	}
	return true, nil
}

func (c *redisReportCache) Set(ctx context.Context, key ReportKey, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode report cache: %w", err)
	}

	if err := c.store.client.Set(ctx, buildReportKey(c.store.prefix, key), payload, c.store.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisReportCache) InvalidateAll(ctx context.Context) error {
	return c.store.purge(ctx)
}

func (n *noopReportCache) Get(ctx context.Context, key ReportKey, dest interface{}) (bool, error) {
	return false, nil
}

func (n *noopReportCache) Set(ctx context.Context, key ReportKey, value interface{}) error {
	return nil
}

func (n *noopReportCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildReportKey(prefix string, key ReportKey) string {
	return fmt.Sprintf("%s:%s:%s", prefix, key.Report, reportKeyHash(key))
}

// reportKeyHash is stable under destination order and case of the query.
func reportKeyHash(key ReportKey) string {
	parts := []string{
		"dataset=" + key.Dataset,
		"origin=" + key.Origin,
		fmt.Sprintf("threshold=%d", key.Threshold),
		"policy=" + strings.ToLower(key.Policy),
	}
	if len(key.Destinations) > 0 {
		dests := append([]string(nil), key.Destinations...)
		sort.Strings(dests)
		parts = append(parts, "destinations="+strings.Join(dests, ","))
	}
	if q := strings.ToLower(strings.TrimSpace(key.Query)); q != "" {
		parts = append(parts, "query="+q)
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
