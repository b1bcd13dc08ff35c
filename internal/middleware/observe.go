package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/artist-booking/internal/logging"
    "github.com/iliyamo/artist-booking/internal/metrics"
)

// RequestIDHeader carries the per-request id in both directions.
const RequestIDHeader = echo.HeaderXRequestID

// RequestID reuses an upstream X-Request-ID or mints a UUID, and echoes it
// on the response.
func RequestID() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id := c.Request().Header.Get(RequestIDHeader)
            if id == "" {
                id = uuid.NewString()
            }
            c.Set("request_id", id)
            c.Response().Header().Set(RequestIDHeader, id)
            return next(c)
        }
    }
}

// AccessLog writes one zerolog line per request and feeds the Prometheus
// request counters.  The route template, not the raw path, is used as the
// metric label to keep cardinality bounded.
func AccessLog() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            metrics.TrackActiveRequest(true)
            defer metrics.TrackActiveRequest(false)

            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            d := time.Since(start)

            req, res := c.Request(), c.Response()
            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            metrics.RecordAPIRequest(req.Method, route, res.Status, d)

            ev := logging.Info()
            switch {
            case res.Status >= 500:
                ev = logging.Error().Err(err)
            case res.Status >= 400:
                ev = logging.Warn()
            }
            rid, _ := c.Get("request_id").(string)
            ev = ev.Str("request_id", rid).
                Str("method", req.Method).
                Str("route", route).
                Str("path", req.URL.Path).
                Int("status", res.Status).
                Int64("bytes", res.Size).
                Dur("duration", d).
                Str("ip", c.RealIP())
            if id, ok := UserID(c); ok {
                ev = ev.Uint64("user_id", id)
            }
            ev.Msg("http request")
            return nil
        }
    }
}
