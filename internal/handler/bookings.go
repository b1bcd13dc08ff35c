package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/artist-booking/internal/service"
)

// BookingHandler serves booking requests, bookings and the calendar.
type BookingHandler struct {
    Svc *service.BookingService
}

func NewBookingHandler(s *service.BookingService) *BookingHandler {
    return &BookingHandler{Svc: s}
}

type declineReq struct {
    Response string `json:"response_message"`
}

// CreateRequest lets a planner propose an engagement to an artist.
func (h *BookingHandler) CreateRequest(c echo.Context) error {
    var in service.RequestInput
    if err := bind(c, &in); err != nil {
        return writeError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.CreateRequest(ctx, actor(c), in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, out)
}

func (h *BookingHandler) ListOutgoing(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.ListOutgoing(ctx, actor(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ListInbox accepts an optional ?status= filter.
func (h *BookingHandler) ListInbox(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.ListInbox(ctx, actor(c), c.QueryParam("status"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

func (h *BookingHandler) GetRequest(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.GetRequest(ctx, actor(c), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) UpdateRequest(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    var in service.RequestInput
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

// Accept confirms a request and returns the booking it created.
func (h *BookingHandler) Accept(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    var in service.AcceptInput
    if err := bind(c, &in); err != nil {
        return writeError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    b, err := h.Svc.Accept(ctx, actor(c), id, in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) Decline(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    // the body is optional; an empty one binds to a blank response
    var req declineReq
    if err := c.Bind(&req); err != nil {
        return writeError(c, errBadBody)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Decline(ctx, actor(c), id, req.Response)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) CancelRequest(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Cancel(ctx, actor(c), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) ListBookings(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.ListBookings(ctx, actor(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.GetBooking(ctx, actor(c), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return badRequest(c, err.Error())
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.CancelBooking(ctx, actor(c), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// Calendar returns bookings and unavailable days for ?month=YYYY-MM,
// defaulting to the current month.
func (h *BookingHandler) Calendar(c echo.Context) error {
    month := c.QueryParam("month")
    if month == "" {
        month = time.Now().UTC().Format("2006-01")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    out, err := h.Svc.Calendar(ctx, actor(c), month)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"month": month, "entries": out})
}
