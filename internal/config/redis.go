package config

import (
    "context"
    "strconv"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient builds the Redis client backing the rate limiter and the
// catalogue cache. REDIS_URL takes precedence (redis:// or rediss://);
// otherwise REDIS_HOST/REDIS_PORT, REDIS_PASSWORD and REDIS_DB are read
// individually. The connection is verified with a short ping; on any
// failure nil is returned and callers run without Redis.
func NewRedisClient() *redis.Client {
    opts, err := redisOptions()
    if err != nil {
        return nil
    }
    client := redis.NewClient(opts)

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        client.Close()
        return nil
    }
    return client
}

func redisOptions() (*redis.Options, error) {
    if url := envStr("REDIS_URL", ""); url != "" {
        return redis.ParseURL(url)
    }
    addr := envStr("REDIS_HOST", "localhost") + ":" + envStr("REDIS_PORT", "6379")
    db, _ := strconv.Atoi(envStr("REDIS_DB", "0"))
    return &redis.Options{
        Addr:     addr,
        Password: envStr("REDIS_PASSWORD", ""),
        DB:       db,
    }, nil
}
