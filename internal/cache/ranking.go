package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"habbo-tracker/internal/config"
	"habbo-tracker/internal/constants"
	"habbo-tracker/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RankingCache keeps recently computed leaderboards in redis so repeated
// ranking requests skip the aggregate query.
type RankingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// New returns nil when REDIS_ADDR is unset or redis cannot be reached;
// rankings are then always computed from the database.
func New(cfg *config.Config, logger zerolog.Logger) *RankingCache {
	if cfg.RedisAddr == "" {
		logger.Debug().Msg("redis not configured, ranking cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), constants.DBPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, ranking cache disabled")
		client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("ranking cache connected")
	return &RankingCache{client: client, ttl: constants.RankingCacheTTL, logger: logger}
}

func (c *RankingCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func (c *RankingCache) Get(ctx context.Context, hotelID string, limit int) ([]domain.LeaderboardEntry, bool, error) {
	raw, err := c.client.Get(ctx, key(hotelID, limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading ranking cache: %w", err)
	}

	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, fmt.Errorf("decoding cached ranking: %w", err)
	}
	return entries, true, nil
}

func (c *RankingCache) Set(ctx context.Context, hotelID string, limit int, entries []domain.LeaderboardEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding ranking: %w", err)
	}
	if err := c.client.Set(ctx, key(hotelID, limit), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing ranking cache: %w", err)
	}
	return nil
}

func key(hotelID string, limit int) string {
	return fmt.Sprintf("ranking:%s:%d", hotelID, limit)
}
