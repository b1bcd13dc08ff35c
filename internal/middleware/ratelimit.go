package middleware

import (
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "sync"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "golang.org/x/time/rate"

    "github.com/iliyamo/artist-booking/internal/config"
    "github.com/iliyamo/artist-booking/internal/logging"
)

var limiterScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])

    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        local until_next = interval_ms - (now_ms - last_refill)
        if until_next < 0 then until_next = 0 end
        retry_after_ms = until_next
    end

    redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill, 'capacity', capacity)
    redis.call('EXPIRE', key, ttl_seconds)

    return { allowed, tokens, retry_after_ms }
`)

// NewTokenBucket limits requests per key with a token bucket.  With Redis
// the bucket lives in a Lua script so every replica shares it; without
// Redis each process keeps its own golang.org/x/time/rate limiters.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
    }
    var local *localBuckets
    if rdb == nil {
        local = newLocalBuckets(cfg)
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)

            var (
                allowed   bool
                remaining int64
                retryMs   int64
            )
            if local != nil {
                allowed, remaining, retryMs = local.take(key, time.Now())
            } else {
                var ok bool
                allowed, remaining, retryMs, ok = runScript(c, rdb, cfg, key)
                if !ok {
                    return next(c)
                }
            }

            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

            if !allowed {
                secs := int(math.Ceil(float64(retryMs) / 1000.0))
                if secs < 0 { secs = 0 }
                c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
                if cfg.Debug {
                    logging.Debug().Str("key", key).Int64("remaining", remaining).Int64("retry_ms", retryMs).Msg("ratelimit: blocked")
                }
                return c.JSON(http.StatusTooManyRequests, map[string]any{
                    "error":       "too_many_requests",
                    "message":     "rate limit exceeded",
                    "retry_after": secs,
                })
            }

            if cfg.Debug {
                c.Response().Header().Set("X-RateLimit-Key", key)
            }
            return next(c)
        }
    }
}

func runScript(c echo.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string) (allowed bool, remaining, retryMs int64, ok bool) {
    args := []interface{}{
        time.Now().UnixMilli(),
        cfg.Capacity,
        cfg.RefillTokens,
        cfg.RefillInterval.Milliseconds(),
        int64(cfg.TTL / time.Second),
    }
    vals, err := limiterScript.Run(c.Request().Context(), rdb, []string{key}, args...).Result()
    if err != nil {
        if cfg.Debug {
            logging.Warn().Err(err).Str("key", key).Msg("ratelimit: redis error")
        }
        return false, 0, 0, false
    }
    arr, isArr := vals.([]interface{})
    if !isArr || len(arr) != 3 {
        if cfg.Debug {
            logging.Warn().Str("key", key).Str("result", fmt.Sprintf("%#v", vals)).Msg("ratelimit: unexpected script result")
        }
        return false, 0, 0, false
    }
    if i, isInt := arr[0].(int64); isInt { allowed = i == 1 } else { allowed = fmt.Sprint(arr[0]) == "1" }
    return allowed, asInt64(arr[1]), asInt64(arr[2]), true
}

// localBuckets is the in-process fallback.  Idle limiters are dropped
// after cfg.TTL.
type localBuckets struct {
    mu       sync.Mutex
    cfg      config.RateLimitConfig
    limit    rate.Limit
    limiters map[string]*localEntry
    swept    time.Time
}

type localEntry struct {
    lim  *rate.Limiter
    seen time.Time
}

func newLocalBuckets(cfg config.RateLimitConfig) *localBuckets {
    every := cfg.RefillInterval / time.Duration(cfg.RefillTokens)
    return &localBuckets{cfg: cfg, limit: rate.Every(every), limiters: map[string]*localEntry{}}
}

func (b *localBuckets) take(key string, now time.Time) (bool, int64, int64) {
    b.mu.Lock()
    defer b.mu.Unlock()
    if now.Sub(b.swept) > b.cfg.TTL {
        for k, e := range b.limiters {
            if now.Sub(e.seen) > b.cfg.TTL {
                delete(b.limiters, k)
            }
        }
        b.swept = now
    }
    e, ok := b.limiters[key]
    if !ok {
        e = &localEntry{lim: rate.NewLimiter(b.limit, b.cfg.Capacity)}
        b.limiters[key] = e
    }
    e.seen = now
    if e.lim.AllowN(now, 1) {
        return true, int64(e.lim.TokensAt(now)), 0
    }
    r := e.lim.ReserveN(now, 1)
    wait := r.DelayFrom(now)
    r.CancelAt(now)
    return false, 0, wait.Milliseconds()
}

func asInt64(v interface{}) int64 {
    switch t := v.(type) {
    case int64: return t
    case int32: return int64(t)
    case int: return int64(t)
    case float64: return int64(t)
    case float32: return int64(t)
    case string:
        if n, err := strconv.ParseInt(t, 10, 64); err == nil { return n }
    }
    return 0
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    parts := []string{cfg.Prefix}
    strategy := strings.ToLower(cfg.KeyStrategy)
    ip := c.RealIP()
    if ip == "" { ip = "unknown" }
    uid := userID(c)
    route := c.Request().Method + " " + c.Path()

    switch strategy {
    case "ip":
        parts = append(parts, "ip", ip)
    case "user":
        parts = append(parts, "user", uid)
    case "route":
        parts = append(parts, "route", route)
    case "ip_user":
        parts = append(parts, "ip", ip, "user", uid)
    case "ip_route":
        parts = append(parts, "ip", ip, "route", route)
    case "user_route":
        parts = append(parts, "user", uid, "route", route)
    default:
        parts = append(parts, "ip", ip, "user", uid, "route", route)
    }
    return strings.Join(parts, ":")
}
