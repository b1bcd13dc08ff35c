package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/artist-booking/internal/discovery"
    "github.com/iliyamo/artist-booking/internal/service"
)

// ArtistHandler serves discovery, public artist pages, reviews and
// planner favourites.
type ArtistHandler struct {
    Svc *service.ArtistService
}

func NewArtistHandler(s *service.ArtistService) *ArtistHandler {
    return &ArtistHandler{Svc: s}
}

// Discover binds the filter from the query string, for example
// ?genre=jazz&state=NSW&social=instagram&social=spotify.
func (h *ArtistHandler) Discover(c echo.Context) error {
    var f discovery.Filter
    if err := (&echo.DefaultBinder{}).BindQueryParams(c, &f); err != nil {
        return badRequest(c, "invalid query")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Discover(ctx, f)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

func (h *ArtistHandler) Page(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Page(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *ArtistHandler) Reviews(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Reviews(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out, "average": service.AverageRating(out)})
}

func (h *ArtistHandler) Review(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    var in service.ReviewInput
    if err := bind(c, &in); err != nil {
        return writeError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Review(ctx, actor(c), id, in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, out)
}

func (h *ArtistHandler) ToggleFavourite(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    on, err := h.Svc.ToggleFavourite(ctx, actor(c), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"artist_id": id, "favourite": on})
}

func (h *ArtistHandler) Favourites(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Favourites(ctx, actor(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}
