package handler // handler defines http handlers

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/artist-booking/internal/logging"
    "github.com/iliyamo/artist-booking/internal/middleware"
    "github.com/iliyamo/artist-booking/internal/payment"
    "github.com/iliyamo/artist-booking/internal/repository"
    "github.com/iliyamo/artist-booking/internal/service"
    "github.com/iliyamo/artist-booking/internal/validation"
)

// requestTimeout bounds the database work of a single request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// actor builds the service caller from the identity JWTAuth stored.
func actor(c echo.Context) service.Actor {
    id, _ := middleware.UserID(c)
    return service.Actor{ID: id, Role: middleware.Role(c), IsAdmin: middleware.IsAdmin(c)}
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid " + name)
    }
    return id, nil
}

// bind decodes the body into req and runs struct validation.
func bind(c echo.Context, req any) error {
    if err := c.Bind(req); err != nil {
        return errBadBody
    }
    if err := c.Validate(req); err != nil {
        return err
    }
    return nil
}

var errBadBody = errors.New("invalid body")

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// writeError maps service, repository and payment errors onto a status and
// a {"error": "..."} body.  Unknown errors are logged and reported as 500.
func writeError(c echo.Context, err error) error {
    status, msg := statusFor(err)
    if status == http.StatusInternalServerError {
        logging.Error().Err(err).Str("route", c.Path()).Msg("request failed")
    }
    return c.JSON(status, echo.Map{"error": msg})
}

func statusFor(err error) (int, string) {
    var fe *validation.FieldError
    var se *payment.StatusError
    switch {
    case errors.As(err, &fe):
        return http.StatusBadRequest, fe.Error()
    case errors.Is(err, errBadBody):
        return http.StatusBadRequest, err.Error()
    case errors.Is(err, service.ErrInvalid):
        return http.StatusBadRequest, strings.TrimPrefix(err.Error(), service.ErrInvalid.Error()+": ")
    case errors.Is(err, payment.ErrMalformed):
        return http.StatusBadRequest, payment.ErrMalformed.Error()
    case errors.Is(err, payment.ErrBadSignature):
        return http.StatusUnauthorized, err.Error()
    case errors.Is(err, service.ErrReviewNotAllowed):
        return http.StatusForbidden, err.Error()
    case errors.Is(err, repository.ErrForbidden):
        return http.StatusForbidden, "forbidden"
    case errors.Is(err, repository.ErrNotFound):
        return http.StatusNotFound, "not found"
    case errors.Is(err, service.ErrPaymentRequired):
        return http.StatusPaymentRequired, err.Error()
    case errors.Is(err, service.ErrNotAccepting),
        errors.Is(err, service.ErrNotPending),
        errors.Is(err, service.ErrBookingClosed),
        errors.Is(err, service.ErrMediaLimit):
        return http.StatusConflict, err.Error()
    case errors.Is(err, repository.ErrEmailExists):
        return http.StatusConflict, "email already exists"
    case errors.Is(err, repository.ErrConflict):
        return http.StatusConflict, "conflict"
    case errors.Is(err, payment.ErrNotConfigured), errors.Is(err, payment.ErrUnavailable):
        return http.StatusServiceUnavailable, "payment provider unavailable"
    case errors.As(err, &se):
        return http.StatusBadGateway, "payment provider rejected the request"
    }
    return http.StatusInternalServerError, "internal error"
}
