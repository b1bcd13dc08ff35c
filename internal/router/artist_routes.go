package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/artist-booking/internal/middleware"
    "github.com/iliyamo/artist-booking/internal/model"
)

// RegisterArtist registers artist-scoped endpoints: onboarding, portfolio,
// availability and the request inbox.
func RegisterArtist(e *echo.Echo, h Handlers, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleArtist),
    )

    g.PUT("/me/artist", h.Profiles.UpsertOwnArtist)
    g.PUT("/me/social", h.Profiles.UpdateSocial)
    g.POST("/me/availability", h.Profiles.AddAvailability)
    g.DELETE("/me/availability/:id", h.Profiles.RemoveAvailability)
    g.POST("/me/media", h.Profiles.UploadMedia)
    g.DELETE("/me/media/:id", h.Profiles.DeleteMedia)

    g.GET("/booking-requests/inbox", h.Bookings.ListInbox)
    g.POST("/booking-requests/:id/accept", h.Bookings.Accept)
    g.POST("/booking-requests/:id/decline", h.Bookings.Decline)
}
