package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"
)

// compareAndDelete removes the lock only if it still carries our token, so an
// expired lock taken over by another instance is never released by us.
const compareAndDelete = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisOptions configures the Redis locker.
type RedisOptions struct {
	Addr   string
	DB     int
	TTL    time.Duration // lock lifetime if the holder dies
	Prefix string        // key prefix, defaults to "subzone:lock:"
	Poll   time.Duration // retry interval while the lock is held elsewhere
}

// Redis is a Locker shared by every instance connected to the same Redis.
type Redis struct {
	client  rueidis.Client
	opts    RedisOptions
	release *rueidis.Lua
}

// NewRedis connects to Redis and verifies the connection with PING.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Second
	}
	if opts.Prefix == "" {
		opts.Prefix = "subzone:lock:"
	}
	if opts.Poll <= 0 {
		opts.Poll = 50 * time.Millisecond
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{opts.Addr},
		SelectDB:    opts.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Redis{
		client:  client,
		opts:    opts,
		release: rueidis.NewLuaScript(compareAndDelete),
	}, nil
}

// Lock implements Locker by polling SET NX PX until it succeeds or ctx ends.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := r.opts.Prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(r.opts.Poll)
	defer ticker.Stop()

	for {
		ok, err := r.tryAcquire(ctx, redisKey, token)
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release must outlive a cancelled request context.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = r.release.Exec(ctx, r.client, []string{redisKey}, []string{token}).Error()
		})
	}, nil
}

func (r *Redis) tryAcquire(ctx context.Context, key, token string) (bool, error) {
	cmd := r.client.B().Set().Key(key).Value(token).Nx().PxMilliseconds(r.opts.TTL.Milliseconds()).Build()
	err := r.client.Do(ctx, cmd).Error()
	if err == nil {
		return true, nil
	}
	if rueidis.IsRedisNil(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
}

// Close closes the Redis connection.
func (r *Redis) Close() {
	r.client.Close()
}
