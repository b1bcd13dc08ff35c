package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/artist-booking/internal/middleware"
)

// RegisterAdmin registers the admin console under /v1/admin.
func RegisterAdmin(e *echo.Echo, h Handlers, jwtSecret string) {
    g := e.Group(
        "/v1/admin",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireAdmin(),
    )

    g.GET("/stats", h.Admin.Stats)
    g.GET("/users", h.Admin.Users)
    g.GET("/events", h.Admin.Events)
    g.GET("/subscriptions", h.Admin.Subscriptions)

    g.PUT("/artists/:id", h.Profiles.UpsertArtist)
    g.PUT("/artists/:id/plan", h.Admin.SetPlan)
    g.POST("/subscriptions/:id/deactivate", h.Admin.Deactivate)
    g.DELETE("/subscriptions/:id", h.Admin.DeleteSubscription)

    g.POST("/announcements", h.Admin.Announce)
    g.DELETE("/announcements/:id", h.Admin.DeleteAnnouncement)

    g.GET("/conversations", h.Messages.Conversations)
    g.GET("/conversations/:user_id", h.Messages.AdminThread)
    g.POST("/conversations/:user_id/messages", h.Messages.AdminReply)
}
