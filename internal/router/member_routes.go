package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/artist-booking/internal/middleware"
    "github.com/iliyamo/artist-booking/internal/model"
)

// RegisterMember registers endpoints open to any signed-in artist or
// planner.  Party checks happen in the services.
func RegisterMember(e *echo.Echo, h Handlers, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleArtist, model.RolePlanner),
    )

    // ---- Profile ----
    g.GET("/session", h.Profiles.Session)
    g.GET("/me", h.Profiles.Me)
    g.PUT("/me", h.Profiles.UpdateMe)
    g.POST("/me/avatar", h.Profiles.UploadAvatar)

    // ---- Requests and bookings ----
    g.GET("/booking-requests/:id", h.Bookings.GetRequest)
    g.GET("/bookings", h.Bookings.ListBookings)
    g.GET("/bookings/:id", h.Bookings.GetBooking)
    g.POST("/bookings/:id/cancel", h.Bookings.CancelBooking)
    g.GET("/calendar", h.Bookings.Calendar)

    // ---- Messages ----
    g.POST("/messages", h.Messages.Send)
    g.GET("/messages/unread", h.Messages.Unread)
    g.GET("/messages/with/:user_id", h.Messages.ThreadWith)
    g.POST("/messages/with/:user_id/read", h.Messages.MarkRead)
    g.GET("/bookings/:id/messages", h.Messages.BookingThread)
    g.POST("/support/messages", h.Messages.ContactAdmin)
    g.GET("/support/messages", h.Messages.MyAdminThread)

    // ---- Events ----
    g.GET("/me/events", h.Events.Mine)
    g.POST("/events", h.Events.Create)
    g.PUT("/events/:id", h.Events.Update)
    g.DELETE("/events/:id", h.Events.Delete)
    g.POST("/events/:id/attend", h.Events.Attend)
    g.POST("/events/:id/cover", h.Events.UploadCover)
    g.POST("/events/:id/images", h.Events.AddImage)
    g.POST("/events/:id/publish", h.Events.Publish)
    g.POST("/events/:id/checkout", h.Events.Checkout)
}
