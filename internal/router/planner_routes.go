package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/artist-booking/internal/middleware"
    "github.com/iliyamo/artist-booking/internal/model"
)

// RegisterPlanner registers planner-scoped endpoints.
func RegisterPlanner(e *echo.Echo, h Handlers, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RolePlanner),
    )

    g.POST("/booking-requests", h.Bookings.CreateRequest)
    g.GET("/booking-requests/outgoing", h.Bookings.ListOutgoing)
    g.PUT("/booking-requests/:id", h.Bookings.UpdateRequest)
    g.POST("/booking-requests/:id/cancel", h.Bookings.CancelRequest)

    g.POST("/artists/:id/reviews", h.Artists.Review)
    g.POST("/artists/:id/favourite", h.Artists.ToggleFavourite)
    g.GET("/me/favourites", h.Artists.Favourites)
}
