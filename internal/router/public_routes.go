package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/artist-booking/internal/middleware"
)

// RegisterPublic registers the guest-readable endpoints.  The GET listings
// are wrapped in the response cache; admin and profile writes purge it.
func RegisterPublic(e *echo.Echo, h Handlers, cache *middleware.ResponseCache, jwtSecret string) {
    g := e.Group("/v1")
    if cache != nil {
        g.Use(cache.Middleware())
    }
    g.GET("/artists", h.Artists.Discover)
    g.GET("/artists/:id", h.Artists.Page)
    g.GET("/artists/:id/reviews", h.Artists.Reviews)
    g.GET("/artists/:id/availability", h.Profiles.ListAvailability)
    g.GET("/events", h.Events.List)
    g.GET("/announcements", h.Admin.Announcements)

    // Drafts are visible to their owner, so identity is read when present.
    e.GET("/v1/events/:id", h.Events.Get, middleware.JWTOptional(jwtSecret))

    // Payment provider callback, authenticated by its HMAC signature.
    e.POST("/v1/payments/webhook", h.Events.Webhook)
}
