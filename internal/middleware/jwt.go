package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/artist-booking/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the profile id, role and admin flag into the request context.  The
// provided secret must match the one used when issuing tokens.  Handlers read
// the values back through UserID, Role and IsAdmin.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw, ok := bearer(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            if err := setIdentity(c, secret, raw); err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            return next(c)
        }
    }
}

// JWTOptional identifies the caller when a valid token is present and lets
// anonymous requests through.  Public routes that show more to owners, such
// as draft events, use it.
func JWTOptional(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if raw, ok := bearer(c); ok {
                _ = setIdentity(c, secret, raw)
            }
            return next(c)
        }
    }
}

func bearer(c echo.Context) (string, bool) {
    auth := c.Request().Header.Get("Authorization")
    if !strings.HasPrefix(auth, "Bearer ") {
        return "", false
    }
    raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
    return raw, raw != ""
}

func setIdentity(c echo.Context, secret, raw string) error {
    claims, err := utils.ParseAccessToken(secret, raw)
    if err != nil {
        return err
    }
    id, err := claims.UserID()
    if err != nil {
        return err
    }
    c.Set(CtxUserID, id)
    c.Set(CtxRole, claims.Role)
    c.Set(CtxIsAdmin, claims.IsAdmin)
    return nil
}
