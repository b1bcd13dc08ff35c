package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/artist-booking/internal/service"
)

// MessageHandler serves artist/planner messaging and the admin support
// threads.
type MessageHandler struct {
    Svc *service.MessageService
}

func NewMessageHandler(s *service.MessageService) *MessageHandler {
    return &MessageHandler{Svc: s}
}

type bodyReq struct {
    Body string `json:"body" validate:"required,max=5000"`
}

func (h *MessageHandler) Send(c echo.Context) error {
    var in service.SendInput
    if err := bind(c, &in); err != nil {
        return writeError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Send(ctx, actor(c), in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, out)
}

func (h *MessageHandler) BookingThread(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.BookingThread(ctx, actor(c), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ThreadWith returns the direct thread with :user_id.
func (h *MessageHandler) ThreadWith(c echo.Context) error {
    id, err := pathID(c, "user_id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.ThreadWith(ctx, actor(c), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

func (h *MessageHandler) MarkRead(c echo.Context) error {
    id, err := pathID(c, "user_id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Svc.MarkRead(ctx, actor(c), id); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

func (h *MessageHandler) Unread(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Unread(ctx, actor(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// ContactAdmin posts to the caller's support thread.
func (h *MessageHandler) ContactAdmin(c echo.Context) error {
    var req bodyReq
    if err := bind(c, &req); err != nil {
        return writeError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.ContactAdmin(ctx, actor(c), req.Body)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, out)
}

func (h *MessageHandler) MyAdminThread(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.MyAdminThread(ctx, actor(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

func (h *MessageHandler) AdminReply(c echo.Context) error {
    id, err := pathID(c, "user_id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    var req bodyReq
    if err := bind(c, &req); err != nil {
        return writeError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.AdminReply(ctx, actor(c), id, req.Body)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, out)
}

func (h *MessageHandler) AdminThread(c echo.Context) error {
    id, err := pathID(c, "user_id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.AdminThread(ctx, actor(c), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

func (h *MessageHandler) Conversations(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Conversations(ctx, actor(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}
