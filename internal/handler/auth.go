package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/artist-booking/internal/config"
    "github.com/iliyamo/artist-booking/internal/middleware"
    "github.com/iliyamo/artist-booking/internal/model"
    "github.com/iliyamo/artist-booking/internal/repository"
    "github.com/iliyamo/artist-booking/internal/utils"
)

// UserStore is the part of the profile repository auth needs.
type UserStore interface {
    Create(ctx context.Context, p repository.NewProfile, cost int) (uint64, error)
    GetByEmail(ctx context.Context, email string) (*model.Profile, error)
    GetByID(ctx context.Context, id uint64) (*model.Profile, error)
}

// TokenStore persists hashed refresh tokens.
type TokenStore interface {
    StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
    ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
    RevokeByHash(ctx context.Context, tokenHash string) error
    RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  UserStore
    Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
    Name     string `json:"name" validate:"required,max=120"`
    Email    string `json:"email" validate:"required,email,max=255"`
    Password string `json:"password" validate:"required,min=8,max=72"`
    Role     string `json:"role" validate:"required,oneof=artist planner"`
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID      uint64 `json:"id"`
    Name    string `json:"name"`
    Email   string `json:"email"`
    Role    string `json:"role"`
    IsAdmin bool   `json:"is_admin"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

// issue creates an access/refresh pair for p and stores the refresh hash.
func (h *AuthHandler) issue(ctx context.Context, p *model.Profile) (*authResp, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, p.ID, p.Role, p.IsAdmin, h.Cfg.AccessTTLMin)
    if err != nil {
        return nil, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return nil, err
    }
    if err := h.Tokens.StoreRefresh(ctx, p.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return nil, err
    }
    return &authResp{
        User:    userPart{ID: p.ID, Name: p.Name, Email: p.Email, Role: p.Role, IsAdmin: p.IsAdmin},
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    }, nil
}

// Register: create the profile and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    req.Name = strings.TrimSpace(req.Name)
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    req.Role = strings.ToLower(strings.TrimSpace(req.Role))
    if err := c.Validate(&req); err != nil {
        return writeError(c, err)
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    uid, err := h.Users.Create(ctx, repository.NewProfile{
        Name: req.Name, Email: req.Email, Password: req.Password, Role: req.Role,
    }, h.Cfg.BcryptCost)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }

    out, err := h.issue(ctx, &model.Profile{ID: uid, Name: req.Name, Email: req.Email, Role: req.Role})
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusCreated, out)
}

// Login: verify and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return badRequest(c, "email/password required")
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }

    out, err := h.issue(ctx, u)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusOK, out)
}

// Refresh: validate by hash, revoke old, issue new.  The role and admin
// flag are reloaded so a promotion takes effect on the next refresh.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return badRequest(c, "refresh_token required")
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := reqCtx(c)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    _ = h.Tokens.RevokeByHash(ctx, hash)

    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    out, err := h.issue(ctx, u)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusOK, out)
}

// Logout revokes either one refresh token (body) or, when only a bearer
// token is present, every refresh token of that user.  Route it behind
// JWTOptional.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    _ = c.Bind(&req)
    refreshToken := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := reqCtx(c)
    defer cancel()

    if refreshToken != "" {
        hash := utils.HashRefreshRaw(refreshToken)
        if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
        }
        if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }
    if uid, ok := middleware.UserID(c); ok {
        if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }
    return badRequest(c, "provide Authorization header or refresh_token")
}
