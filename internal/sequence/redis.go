package sequence

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"invoicing/internal/logger"
)

const keyPrefix = "invoicing:seq:"

// nextScript raises the counter to at least the floor, then increments it, in one
// atomic step.
var nextScript = goredis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if cur < floor then
  cur = floor
end
cur = cur + 1
redis.call('SET', KEYS[1], cur)
return cur
`)

// Redis is a sequencer shared by every instance connected to the same Redis.
type Redis struct {
	rdb *goredis.Client
	log zerolog.Logger
}

// NewRedis connects to the Redis server at url (redis://host:port/db) and verifies
// the connection.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	const op = "sequence.NewRedis"

	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid redis url: %w", op, err)
	}
	opts.DialTimeout = 5 * time.Second

	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: redis ping: %w", op, err)
	}

	return NewRedisFromClient(rdb), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(rdb *goredis.Client) *Redis {
	return &Redis{rdb: rdb, log: logger.WithComponent("redis-sequence")}
}

// Next atomically allocates the next number for period.
func (r *Redis) Next(ctx context.Context, period string, floor int) (int, error) {
	n, err := nextScript.Run(ctx, r.rdb, []string{Key(period)}, floor).Int()
	if err != nil {
		r.log.Error().Err(err).Str("period", period).Msg("Failed to allocate invoice sequence")
		return 0, fmt.Errorf("sequence.Redis.Next: %w", err)
	}
	return n, nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

// Key returns the Redis key holding the counter for period.
func Key(period string) string {
	return keyPrefix + period
}
