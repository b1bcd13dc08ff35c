package handler

import (
    "io"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/artist-booking/internal/payment"
    "github.com/iliyamo/artist-booking/internal/service"
)

// maxWebhookBytes caps the payment callback body.
const maxWebhookBytes = 1 << 20

// EventHandler serves community events, their media, attendance and the
// paid publish flow.
type EventHandler struct {
    Svc *service.EventService
}

func NewEventHandler(s *service.EventService) *EventHandler {
    return &EventHandler{Svc: s}
}

// List returns upcoming published events; ?all=true includes past ones.
func (h *EventHandler) List(c echo.Context) error {
    all, _ := strconv.ParseBool(c.QueryParam("all"))
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.ListPublished(ctx, all)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

func (h *EventHandler) Mine(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.ListMine(ctx, actor(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Get runs behind JWTOptional so owners can open their drafts.
func (h *EventHandler) Get(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Get(ctx, actor(c), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *EventHandler) Create(c echo.Context) error {
    var in service.EventInput
    if err := bind(c, &in); err != nil {
        return writeError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Create(ctx, actor(c), in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, out)
}

func (h *EventHandler) Update(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    var in service.EventInput
    if err := bind(c, &in); err != nil {
        return writeError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Update(ctx, actor(c), id, in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *EventHandler) Delete(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Svc.Delete(ctx, actor(c), id); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

func (h *EventHandler) Attend(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    on, err := h.Svc.ToggleAttendance(ctx, actor(c), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"event_id": id, "attending": on})
}

func (h *EventHandler) UploadCover(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    name, f, err := formFile(c)
    if err != nil {
        return badRequest(c, err.Error())
    }
    defer f.Close()
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.UploadCover(ctx, actor(c), id, name, f)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *EventHandler) AddImage(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    name, f, err := formFile(c)
    if err != nil {
        return badRequest(c, err.Error())
    }
    defer f.Close()
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.AddImage(ctx, actor(c), id, name, f)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, out)
}

// Publish makes a draft visible.  It answers 402 when publishing must go
// through checkout.
func (h *EventHandler) Publish(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Publish(ctx, actor(c), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *EventHandler) Checkout(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.StartCheckout(ctx, actor(c), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, out)
}

// Webhook receives provider callbacks.  The raw body is needed for the
// signature check so it is read before any binding.
func (h *EventHandler) Webhook(c echo.Context) error {
    body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBytes))
    if err != nil {
        return badRequest(c, "invalid body")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Svc.HandleWebhook(ctx, body, c.Request().Header.Get(payment.SignatureHeader)); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"received": true})
}
