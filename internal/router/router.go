package router // package router defines how HTTP routes are registered for the API

import (
    "net/http"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/prometheus/client_golang/prometheus/promhttp"

    "github.com/iliyamo/artist-booking/internal/handler"
    "github.com/iliyamo/artist-booking/internal/middleware"
    "github.com/iliyamo/artist-booking/internal/validation"
)

// Handlers groups every HTTP handler the API mounts.
type Handlers struct {
    Auth     *handler.AuthHandler
    Profiles *handler.ProfileHandler
    Artists  *handler.ArtistHandler
    Bookings *handler.BookingHandler
    Events   *handler.EventHandler
    Messages *handler.MessageHandler
    Admin    *handler.AdminHandler
}

// Options carries the cross-cutting pieces the routes are wrapped in.
type Options struct {
    JWTSecret string
    DB        handler.Pinger
    Cache     *middleware.ResponseCache
    RateLimit echo.MiddlewareFunc
    // StaticPrefix/StaticDir serve uploaded media when both are set.
    StaticPrefix string
    StaticDir    string
    BodyLimit    string
}

// New builds the Echo instance with the validator, the goccy JSON
// serializer, global middleware and every route group.
func New(h Handlers, o Options) *echo.Echo {
    e := echo.New()
    e.HideBanner = true
    e.HidePort = true
    e.Validator = validation.New()
    e.JSONSerializer = JSONSerializer{}

    if o.BodyLimit == "" {
        o.BodyLimit = "32M"
    }
    e.Use(echomw.Recover())
    e.Use(middleware.RequestID())
    e.Use(middleware.AccessLog())
    e.Use(echomw.BodyLimit(o.BodyLimit))
    if o.RateLimit != nil {
        e.Use(o.RateLimit)
    }

    RegisterRoutes(e, o.DB)
    if o.StaticPrefix != "" && o.StaticDir != "" {
        e.Static(o.StaticPrefix, o.StaticDir)
    }
    RegisterAuth(e, h.Auth, o.JWTSecret)
    RegisterPublic(e, h, o.Cache, o.JWTSecret)
    RegisterMember(e, h, o.JWTSecret)
    RegisterArtist(e, h, o.JWTSecret)
    RegisterPlanner(e, h, o.JWTSecret)
    RegisterAdmin(e, h, o.JWTSecret)
    e.RouteNotFound("/*", notFound)
    return e
}

// RegisterRoutes registers the operational endpoints: liveness, readiness
// and Prometheus metrics.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
    e.GET("/healthz", handler.Health)
    if db != nil {
        e.GET("/readyz", handler.Ready(db))
    }
    e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the session endpoints.  Register, login and
// refresh need no token; logout accepts either a bearer token or a
// refresh token in the body.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)
    g.POST("/logout", a.Logout, middleware.JWTOptional(jwtSecret))
}

// notFound is the JSON 404 for unknown routes.
func notFound(c echo.Context) error {
    return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
}
