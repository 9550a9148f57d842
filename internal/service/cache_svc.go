package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/TelesEntrega/youtube-channel-ranking/internal/logging"
)

const (
	rankingTTL = 5 * time.Minute
	channelTTL = 10 * time.Minute
)

// CacheService is a cache-aside layer over Redis. It degrades gracefully: when
// Redis is unreachable or not configured, every lookup is a miss and every
// write is a no-op, so the API keeps serving from the store.
type CacheService struct {
	client *redis.Client

	// Optional hit/miss hooks, used for metrics. Set before serving.
	onHit  func()
	onMiss func()
}

// SetMetrics installs hit/miss callbacks invoked on every cache lookup.
func (s *CacheService) SetMetrics(onHit, onMiss func()) {
	s.onHit = onHit
	s.onMiss = onMiss
}

// NewCacheService connects to Redis at redisURL. An empty URL or a failed
// ping yields a disabled cache, never an error.
func NewCacheService(redisURL string) *CacheService {
	if redisURL == "" {
		logging.Logger.Info().Msg("redis not configured, cache disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logging.Logger.Warn().Err(err).Msg("invalid redis url, cache disabled")
		return &CacheService{}
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logging.Logger.Warn().Err(err).Msg("redis unreachable, cache disabled")
		client.Close()
		return &CacheService{}
	}

	logging.Logger.Info().Msg("redis cache connected")
	return &CacheService{client: client}
}

// Enabled reports whether a Redis backend is attached.
func (s *CacheService) Enabled() bool {
	return s.client != nil
}

// Get unmarshals the cached value for key into dest. Returns false on miss,
// on any Redis error, or when the cache is disabled.
func (s *CacheService) Get(ctx context.Context, key string, dest any) bool {
	if s.client == nil {
		return false
	}

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logging.Logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
		}
		s.miss()
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		logging.Logger.Warn().Err(err).Str("key", key).Msg("cache entry corrupt, ignoring")
		s.miss()
		return false
	}
	if s.onHit != nil {
		s.onHit()
	}
	return true
}

func (s *CacheService) miss() {
	if s.onMiss != nil {
		s.onMiss()
	}
}

// Set stores value under key with the given TTL. Failures are logged and
// swallowed.
func (s *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if s.client == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		logging.Logger.Warn().Err(err).Str("key", key).Msg("cache marshal failed")
		return
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		logging.Logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// Ping reports backend health for readiness checks.
func (s *CacheService) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Ping(ctx).Err()
}

func (s *CacheService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}
