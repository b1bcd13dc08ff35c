package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/artist-booking/internal/model"
    "github.com/iliyamo/artist-booking/internal/service"
)

// ProfileHandler serves the caller's own profile, artist onboarding,
// availability and portfolio uploads.
type ProfileHandler struct {
    Svc *service.ProfileService
}

func NewProfileHandler(s *service.ProfileService) *ProfileHandler {
    return &ProfileHandler{Svc: s}
}

// Session is polled by the client on load.
func (h *ProfileHandler) Session(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Session(ctx, actor(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *ProfileHandler) Me(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Me(ctx, actor(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *ProfileHandler) UpdateMe(c echo.Context) error {
    var in service.ProfileInput
    if err := bind(c, &in); err != nil {
        return writeError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.UpdateMe(ctx, actor(c), in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// UpsertOwnArtist creates or updates the caller's artist profile.
func (h *ProfileHandler) UpsertOwnArtist(c echo.Context) error {
    a := actor(c)
    return h.upsertArtist(c, a, a.ID)
}

// UpsertArtist lets an admin edit any artist profile (/admin/artists/:id).
func (h *ProfileHandler) UpsertArtist(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    return h.upsertArtist(c, actor(c), id)
}

func (h *ProfileHandler) upsertArtist(c echo.Context, a service.Actor, target uint64) error {
    var in service.ArtistInput
    if err := bind(c, &in); err != nil {
        return writeError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.UpsertArtist(ctx, a, target, in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *ProfileHandler) UpdateSocial(c echo.Context) error {
    var links model.SocialLinks
    if err := c.Bind(&links); err != nil {
        return badRequest(c, "invalid body")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.UpdateSocial(ctx, actor(c), links)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *ProfileHandler) AddAvailability(c echo.Context) error {
    var in service.AvailabilityInput
    if err := bind(c, &in); err != nil {
        return writeError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.AddAvailability(ctx, actor(c), in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, out)
}

func (h *ProfileHandler) RemoveAvailability(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Svc.RemoveAvailability(ctx, actor(c), id); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ListAvailability is public: GET /v1/artists/:id/availability?from=&to=.
func (h *ProfileHandler) ListAvailability(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.ListAvailability(ctx, id, c.QueryParam("from"), c.QueryParam("to"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

func (h *ProfileHandler) UploadAvatar(c echo.Context) error {
    name, f, err := formFile(c)
    if err != nil {
        return badRequest(c, err.Error())
    }
    defer f.Close()
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.UploadAvatar(ctx, actor(c), name, f)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// UploadMedia takes a multipart "file" and an optional "caption" field.
func (h *ProfileHandler) UploadMedia(c echo.Context) error {
    name, f, err := formFile(c)
    if err != nil {
        return badRequest(c, err.Error())
    }
    defer f.Close()
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.UploadMedia(ctx, actor(c), name, c.FormValue("caption"), f)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, out)
}

func (h *ProfileHandler) DeleteMedia(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Svc.DeleteMedia(ctx, actor(c), id); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
