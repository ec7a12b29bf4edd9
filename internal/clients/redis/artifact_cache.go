package redis

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/openagora/agora-backend/internal/logger"
	"github.com/openagora/agora-backend/internal/types"
)

// ArtifactCache is a shared second-tier cache for clustering artifacts so
// sibling API processes behind the load balancer skip the Postgres read for
// hot conversations. Postgres stays the source of truth; losing entries here
// is always safe.
type ArtifactCache interface {
	Get(ctx context.Context, conversationID uuid.UUID, env string) (*types.ClusteringResult, error)
	Put(ctx context.Context, row *types.ClusteringResult) error
	Close() error
}

type artifactCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// putIfNewer mirrors the supersede-only write policy of the backing table:
// the hash is replaced only when the incoming tick is strictly greater.
var putIfNewer = goredis.NewScript(`
local tick = redis.call('HGET', KEYS[1], 'tick')
if tick and tonumber(ARGV[1]) <= tonumber(tick) then
  return 0
end
redis.call('HSET', KEYS[1], 'tick', ARGV[1], 'data', ARGV[2])
redis.call('EXPIRE', KEYS[1], ARGV[3])
return 1
`)

func NewArtifactCache(log *logger.Logger) (ArtifactCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &artifactCache{
		log: log.With("service", "RedisArtifactCache"),
		rdb: rdb,
		ttl: 6 * time.Hour,
	}, nil
}

func cacheKey(conversationID uuid.UUID, env string) string {
	return "agora:math:" + env + ":" + conversationID.String()
}

func (c *artifactCache) Get(ctx context.Context, conversationID uuid.UUID, env string) (*types.ClusteringResult, error) {
	if c == nil || c.rdb == nil {
		return nil, fmt.Errorf("artifact cache not initialized")
	}
	fields, err := c.rdb.HGetAll(ctx, cacheKey(conversationID, env)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	tick, err := strconv.ParseInt(fields["tick"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt cache entry tick: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(fields["data"])
	if err != nil {
		return nil, fmt.Errorf("corrupt cache entry data: %w", err)
	}
	return &types.ClusteringResult{
		ConversationID: conversationID,
		MathEnv:        env,
		MathTick:       tick,
		Data:           data,
	}, nil
}

func (c *artifactCache) Put(ctx context.Context, row *types.ClusteringResult) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("artifact cache not initialized")
	}
	if row == nil || row.ConversationID == uuid.Nil {
		return nil
	}
	encoded := base64.StdEncoding.EncodeToString(row.Data)
	ttlSeconds := int(c.ttl / time.Second)
	return putIfNewer.Run(ctx, c.rdb,
		[]string{cacheKey(row.ConversationID, row.MathEnv)},
		row.MathTick, encoded, ttlSeconds,
	).Err()
}

func (c *artifactCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
