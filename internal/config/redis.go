package config

// Redis backs the distributed rate limiter and the discovery response
// cache.  Both degrade to pass-through (or an in-process limiter) when the
// server cannot be reached at startup.

import (
    "context"
    "crypto/tls"
    "os"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/artist-booking/internal/logging"
)

// RedisConfig holds connection parameters for Redis.
type RedisConfig struct {
    Addr     string
    Password string
    DB       int
    TLS      bool
}

// LoadRedisConfig reads REDIS_HOST/REDIS_PORT (or REDIS_ADDR), REDIS_PASSWORD,
// REDIS_DB and REDIS_TLS.  Host and port take precedence over REDIS_ADDR.
func LoadRedisConfig() RedisConfig {
    addr := os.Getenv("REDIS_ADDR")
    host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")
    if host != "" && port != "" {
        addr = host + ":" + port
    }
    if addr == "" {
        addr = "localhost:6379"
    }
    tlsEnv := os.Getenv("REDIS_TLS")
    return RedisConfig{
        Addr:     addr,
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       envInt("REDIS_DB", 0),
        TLS:      strings.EqualFold(tlsEnv, "true") || tlsEnv == "1",
    }
}

// NewRedisClient instantiates a Redis client and pings it with a short
// timeout.  The returned client is nil if a connection cannot be established.
func NewRedisClient(cfg RedisConfig) *redis.Client {
    var tlsConf *tls.Config
    if cfg.TLS {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      cfg.Addr,
        Password:  cfg.Password,
        DB:        cfg.DB,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        logging.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis unavailable; cache and distributed rate limit disabled")
        _ = client.Close()
        return nil
    }
    return client
}
