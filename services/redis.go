package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fitsocial/config"
	"fitsocial/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	FEED_SOURCES_KEY_PREFIX         = "feed_sources:"
	FEED_SOURCES_VERSION_KEY_PREFIX = "feed_sources_version:"
)

func NewRedisClient(conf *config.ConfigSchema) (*redis.Client, error) {
	if conf == nil {
		return nil, fmt.Errorf("AppConfig is not loaded")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", conf.Redis.Host, conf.Redis.Port),
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// FeedSourceCache holds, per viewer, the followed ids a feed is built from.
// Any follow mutation by the viewer must invalidate the viewer's entry.
//
// Every Invalidate bumps the viewer's version. A reader takes the version
// before loading ids from the store and passes it to Set, which drops the
// write if an invalidation happened in between.
type FeedSourceCache interface {
	Get(ctx context.Context, viewerID string) ([]string, bool)
	// Version reports the viewer's current version; false means the cache
	// cannot tell and the caller must not Set.
	Version(ctx context.Context, viewerID string) (int64, bool)
	Set(ctx context.Context, viewerID string, version int64, followedIDs []string)
	Invalidate(ctx context.Context, viewerIDs ...string)
}

type NopFeedSourceCache struct{}

func (NopFeedSourceCache) Get(context.Context, string) ([]string, bool)  { return nil, false }
func (NopFeedSourceCache) Version(context.Context, string) (int64, bool) { return 0, false }
func (NopFeedSourceCache) Set(context.Context, string, int64, []string)  {}
func (NopFeedSourceCache) Invalidate(context.Context, ...string)         {}

type RedisFeedSourceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisFeedSourceCache(client *redis.Client, ttl time.Duration) *RedisFeedSourceCache {
	return &RedisFeedSourceCache{client: client, ttl: ttl}
}

func feedSourcesKey(viewerID string) string {
	return FEED_SOURCES_KEY_PREFIX + viewerID
}

func feedSourcesVersionKey(viewerID string) string {
	return FEED_SOURCES_VERSION_KEY_PREFIX + viewerID
}

func (c *RedisFeedSourceCache) Get(ctx context.Context, viewerID string) ([]string, bool) {
	val, err := c.client.Get(ctx, feedSourcesKey(viewerID)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Warn("feed sources cache read failed", zap.String("viewer_id", viewerID), zap.Error(err))
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal([]byte(val), &ids); err != nil {
		return nil, false
	}
	return ids, true
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readVersion(ctx context.Context, cmd stringGetter, viewerID string) (int64, error) {
	version, err := cmd.Get(ctx, feedSourcesVersionKey(viewerID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return version, err
}

func (c *RedisFeedSourceCache) Version(ctx context.Context, viewerID string) (int64, bool) {
	version, err := readVersion(ctx, c.client, viewerID)
	if err != nil {
		logger.Warn("feed sources version read failed", zap.String("viewer_id", viewerID), zap.Error(err))
		return 0, false
	}
	return version, true
}

// Set writes under WATCH on the version key, so an Invalidate that lands
// after the version was read or during the write aborts it.
func (c *RedisFeedSourceCache) Set(ctx context.Context, viewerID string, version int64, followedIDs []string) {
	data, err := json.Marshal(followedIDs)
	if err != nil {
		return
	}
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readVersion(ctx, tx, viewerID)
		if err != nil {
			return err
		}
		if current != version {
			return errStaleFeedSources
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, feedSourcesKey(viewerID), data, c.ttl)
			return nil
		})
		return err
	}, feedSourcesVersionKey(viewerID))
	switch {
	case err == nil:
	case errors.Is(err, errStaleFeedSources), errors.Is(err, redis.TxFailedErr):
		logger.Debug("feed sources changed during read, not caching", zap.String("viewer_id", viewerID))
	default:
		logger.Warn("feed sources cache write failed", zap.String("viewer_id", viewerID), zap.Error(err))
	}
}

var errStaleFeedSources = errors.New("feed sources invalidated during read")

func (c *RedisFeedSourceCache) Invalidate(ctx context.Context, viewerIDs ...string) {
	if len(viewerIDs) == 0 {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range viewerIDs {
			pipe.Incr(ctx, feedSourcesVersionKey(id))
			pipe.Del(ctx, feedSourcesKey(id))
		}
		return nil
	})
	if err != nil {
		logger.Warn("feed sources cache invalidation failed", zap.Strings("viewer_ids", viewerIDs), zap.Error(err))
	}
}
