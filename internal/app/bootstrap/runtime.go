package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/buyer-leads/internal/config"
	"github.com/wolfman30/buyer-leads/internal/identity"
	"github.com/wolfman30/buyer-leads/internal/leads"
	"github.com/wolfman30/buyer-leads/internal/observability/metrics"
	"github.com/wolfman30/buyer-leads/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, lead list cache disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPostgresPool connects to DATABASE_URL and verifies the connection.
func BuildPostgresPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.New("bootstrap: DATABASE_URL is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: parse database url: %w", err)
	}
	if cfg.DatabaseMaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.DatabaseMaxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return pool, nil
}

// BuildListCache returns the Redis list cache, or a no-op cache when Redis is off.
func BuildListCache(redisClient *redis.Client, cfg *appconfig.Config) leads.ListCache {
	if redisClient == nil || cfg == nil {
		return leads.NoopListCache{}
	}
	return leads.NewRedisListCache(redisClient, cfg.LeadListCacheTTL)
}

// BuildLeadService wires the lead service over repo with the configured cache and limits.
func BuildLeadService(repo leads.Repository, cache leads.ListCache, m *metrics.LeadMetrics, cfg *appconfig.Config, logger *logging.Logger) *leads.Service {
	opts := []leads.ServiceOption{
		leads.WithListCache(cache),
		leads.WithMetrics(m),
	}
	if cfg != nil {
		opts = append(opts, leads.WithListLimit(cfg.LeadListLimit))
	}
	return leads.NewService(repo, logger, opts...)
}

// DefaultActor is who writes are attributed to when no actor token is configured.
func DefaultActor(cfg *appconfig.Config) identity.Actor {
	if cfg == nil {
		return identity.Actor{}
	}
	return identity.Actor{
		ID:    strings.TrimSpace(cfg.DefaultOwnerID),
		Email: strings.TrimSpace(cfg.DefaultOwnerEmail),
	}
}
