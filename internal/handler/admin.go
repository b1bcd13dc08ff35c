package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/artist-booking/internal/service"
)

// AdminHandler serves the admin console: stats, searchable listings,
// subscription management and announcements.  Routes are mounted behind
// RequireAdmin and the service checks the flag again.
type AdminHandler struct {
    Svc *service.AdminService
}

func NewAdminHandler(s *service.AdminService) *AdminHandler {
    return &AdminHandler{Svc: s}
}

func (h *AdminHandler) Stats(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Stats(ctx, actor(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// Users, Events and Subscriptions accept ?q= for a case-insensitive search.
func (h *AdminHandler) Users(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Users(ctx, actor(c), c.QueryParam("q"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

func (h *AdminHandler) Events(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Events(ctx, actor(c), c.QueryParam("q"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

func (h *AdminHandler) Subscriptions(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Subscriptions(ctx, actor(c), c.QueryParam("q"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// SetPlan sets the plan of artist :id.
func (h *AdminHandler) SetPlan(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    var in service.PlanInput
    if err := bind(c, &in); err != nil {
        return writeError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.SetPlan(ctx, actor(c), id, in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) Deactivate(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Svc.DeactivateSubscription(ctx, actor(c), id); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) DeleteSubscription(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Svc.DeleteSubscription(ctx, actor(c), id); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) Announce(c echo.Context) error {
    var in service.AnnouncementInput
    if err := bind(c, &in); err != nil {
        return writeError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Announce(ctx, actor(c), in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, out)
}

func (h *AdminHandler) DeleteAnnouncement(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Svc.DeleteAnnouncement(ctx, actor(c), id); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Announcements is public.
func (h *AdminHandler) Announcements(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Announcements(ctx)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}
