package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/game-leaderboard/internal/config"
	"github.com/game-leaderboard/internal/domain"
)

// Pages caches rendered leaderboard pages in Redis. Keys embed a
// monotonic version counter that is bumped on every append, so a write
// invalidates every cached page at once without explicit deletes; stale
// entries simply age out via TTL. The score log stays the single source
// of truth: a cache miss or any Redis error falls through to storage.
type Pages struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

const versionKey = "leaderboard:version"

// NewPages creates a Redis-backed page cache
func NewPages(cfg *config.CacheConfig, logger *slog.Logger) (*Pages, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Pages{
		client: client,
		ttl:    cfg.TTL,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (p *Pages) Close() error {
	return p.client.Close()
}

// pageKey returns the cache key for a page at the given log version
func (p *Pages) pageKey(version int64, limit, offset int) string {
	return fmt.Sprintf("leaderboard:v%d:page:%d:%d", version, limit, offset)
}

// version returns the current log version, 0 when never bumped
func (p *Pages) version(ctx context.Context) (int64, error) {
	v, err := p.client.Get(ctx, versionKey).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("getting cache version: %w", err)
	}
	return v, nil
}

// Bump advances the log version, invalidating all cached pages.
func (p *Pages) Bump(ctx context.Context) error {
	if err := p.client.Incr(ctx, versionKey).Err(); err != nil {
		return fmt.Errorf("bumping cache version: %w", err)
	}
	return nil
}

// GetPage returns a cached page for the current log version, reporting
// whether one was found.
func (p *Pages) GetPage(ctx context.Context, limit, offset int) (*domain.LeaderboardPage, bool, error) {
	version, err := p.version(ctx)
	if err != nil {
		return nil, false, err
	}

	data, err := p.client.Get(ctx, p.pageKey(version, limit, offset)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("getting cached page: %w", err)
	}

	var page domain.LeaderboardPage
	if err := json.Unmarshal(data, &page); err != nil {
		// Treat undecodable entries as a miss; they expire on their own.
		p.logger.Warn("discarding corrupt cached page", "limit", limit, "offset", offset, "error", err)
		return nil, false, nil
	}
	return &page, true, nil
}

// SetPage stores a page under the current log version. A concurrent
// append between the storage read and this write leaves the entry keyed
// to the old version, where no reader will find it.
func (p *Pages) SetPage(ctx context.Context, limit, offset int, page *domain.LeaderboardPage) error {
	version, err := p.version(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshaling page: %w", err)
	}

	if err := p.client.Set(ctx, p.pageKey(version, limit, offset), data, p.ttl).Err(); err != nil {
		return fmt.Errorf("setting cached page: %w", err)
	}
	return nil
}
