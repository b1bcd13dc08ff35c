package middleware

// identity.go holds the context keys JWTAuth fills and the helpers that
// read them back.  Anonymous requests carry none of the keys.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth and JWTOptional.
const (
    CtxUserID  = "user_id"  // uint64 profile id
    CtxRole    = "role"     // artist | planner
    CtxIsAdmin = "is_admin" // bool
)

// UserID returns the authenticated profile id, or false for anonymous
// requests.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(CtxUserID).(uint64)
    return id, ok && id != 0
}

// Role returns the authenticated role, or "" for anonymous requests.
func Role(c echo.Context) string {
    r, _ := c.Get(CtxRole).(string)
    return r
}

// IsAdmin reports whether the caller holds the admin flag.
func IsAdmin(c echo.Context) bool {
    a, _ := c.Get(CtxIsAdmin).(bool)
    return a
}

// userID renders the caller for rate limit keys.  It returns "guest" when
// no user is authenticated.
func userID(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "guest"
}
