package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/goccy/go-json"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/artist-booking/internal/config"
    "github.com/iliyamo/artist-booking/internal/middleware"
    "github.com/iliyamo/artist-booking/internal/model"
    "github.com/iliyamo/artist-booking/internal/payment"
    "github.com/iliyamo/artist-booking/internal/repository"
    "github.com/iliyamo/artist-booking/internal/service"
    "github.com/iliyamo/artist-booking/internal/utils"
    "github.com/iliyamo/artist-booking/internal/validation"
)

const secret = "handler-secret"

func newEcho() *echo.Echo {
    e := echo.New()
    e.Validator = validation.New()
    return e
}

func do(e *echo.Echo, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, strings.NewReader(body))
    if body != "" {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    for k, v := range header {
        req.Header.Set(k, v)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
    t.Helper()
    var body struct {
        Error string `json:"error"`
    }
    if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
        t.Fatalf("decode %q: %v", rec.Body.String(), err)
    }
    return body.Error
}

func TestStatusFor(t *testing.T) {
    cases := []struct {
        err  error
        code int
    }{
        {&validation.FieldError{Field: "EventDate", Tag: "ymd"}, http.StatusBadRequest},
        {fmt.Errorf("%w: month must be YYYY-MM", service.ErrInvalid), http.StatusBadRequest},
        {repository.ErrNotFound, http.StatusNotFound},
        {fmt.Errorf("load: %w", repository.ErrForbidden), http.StatusForbidden},
        {service.ErrReviewNotAllowed, http.StatusForbidden},
        {service.ErrNotAccepting, http.StatusConflict},
        {service.ErrNotPending, http.StatusConflict},
        {service.ErrMediaLimit, http.StatusConflict},
        {repository.ErrConflict, http.StatusConflict},
        {repository.ErrEmailExists, http.StatusConflict},
        {service.ErrPaymentRequired, http.StatusPaymentRequired},
        {payment.ErrBadSignature, http.StatusUnauthorized},
        {payment.ErrUnavailable, http.StatusServiceUnavailable},
        {&payment.StatusError{Code: 500}, http.StatusBadGateway},
        {errors.New("boom"), http.StatusInternalServerError},
    }
    for _, tc := range cases {
        if got, _ := statusFor(tc.err); got != tc.code {
            t.Errorf("%v: status = %d, want %d", tc.err, got, tc.code)
        }
    }
}

func TestInvalidMessageIsUnprefixed(t *testing.T) {
    _, msg := statusFor(fmt.Errorf("%w: %s", service.ErrInvalid, "month must be YYYY-MM"))
    if msg != "month must be YYYY-MM" {
        t.Fatalf("message = %q", msg)
    }
}

func TestNotAcceptingMessageReachesClient(t *testing.T) {
    e := newEcho()
    e.GET("/x", func(c echo.Context) error { return writeError(c, service.ErrNotAccepting) })
    rec := do(e, http.MethodGet, "/x", "", nil)
    if rec.Code != http.StatusConflict {
        t.Fatalf("status = %d", rec.Code)
    }
    if msg := errorOf(t, rec); msg != "This artist is not currently accepting bookings" {
        t.Fatalf("message = %q", msg)
    }
}

func TestPathID(t *testing.T) {
    e := newEcho()
    e.GET("/r/:id", func(c echo.Context) error {
        id, err := pathID(c, "id")
        if err != nil {
            return badRequest(c, err.Error())
        }
        return c.JSON(http.StatusOK, echo.Map{"id": id})
    })
    for path, code := range map[string]int{"/r/12": 200, "/r/0": 400, "/r/abc": 400, "/r/-3": 400} {
        if rec := do(e, http.MethodGet, path, "", nil); rec.Code != code {
            t.Errorf("%s: status = %d, want %d", path, rec.Code, code)
        }
    }
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func TestHealthAndReady(t *testing.T) {
    e := newEcho()
    e.GET("/healthz", Health)
    e.GET("/up", Ready(pinger{}))
    e.GET("/down", Ready(pinger{err: errors.New("refused")}))

    if rec := do(e, http.MethodGet, "/healthz", "", nil); rec.Code != 200 || rec.Body.String() != "ok" {
        t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
    }
    if rec := do(e, http.MethodGet, "/up", "", nil); rec.Code != http.StatusOK {
        t.Fatalf("ready = %d", rec.Code)
    }
    if rec := do(e, http.MethodGet, "/down", "", nil); rec.Code != http.StatusServiceUnavailable {
        t.Fatalf("not ready = %d", rec.Code)
    }
}

// ---- auth ----

type memUsers struct {
    mu   sync.Mutex
    byID map[uint64]*model.Profile
    seq  uint64
}

func (m *memUsers) Create(_ context.Context, p repository.NewProfile, cost int) (uint64, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, u := range m.byID {
        if u.Email == p.Email {
            return 0, repository.ErrEmailExists
        }
    }
    hash, err := utils.HashPassword(p.Password, cost)
    if err != nil {
        return 0, err
    }
    m.seq++
    m.byID[m.seq] = &model.Profile{ID: m.seq, Name: p.Name, Email: p.Email, PasswordHash: hash, Role: p.Role}
    return m.seq, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.Profile, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, u := range m.byID {
        if u.Email == email {
            cp := *u
            return &cp, nil
        }
    }
    return nil, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (*model.Profile, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    u, ok := m.byID[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    cp := *u
    return &cp, nil
}

type memTokens struct {
    mu      sync.Mutex
    owner   map[string]uint64
    revoked map[string]bool
}

func (m *memTokens) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.owner[hash] = userID
    return nil
}

func (m *memTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    id, ok := m.owner[hash]
    if !ok || m.revoked[hash] {
        return 0, repository.ErrNotFound
    }
    return id, nil
}

func (m *memTokens) RevokeByHash(_ context.Context, hash string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.revoked[hash] = true
    return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    for h, id := range m.owner {
        if id == userID {
            m.revoked[h] = true
        }
    }
    return nil
}

func (m *memTokens) active() int {
    m.mu.Lock()
    defer m.mu.Unlock()
    n := 0
    for h := range m.owner {
        if !m.revoked[h] {
            n++
        }
    }
    return n
}

func newAuth() (*echo.Echo, *memUsers, *memTokens) {
    users := &memUsers{byID: map[uint64]*model.Profile{}}
    tokens := &memTokens{owner: map[string]uint64{}, revoked: map[string]bool{}}
    h := NewAuthHandler(config.Config{JWTSecret: secret, AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4}, users, tokens)
    e := newEcho()
    e.POST("/register", h.Register)
    e.POST("/login", h.Login)
    e.POST("/refresh", h.Refresh)
    e.POST("/logout", h.Logout, middleware.JWTOptional(secret))
    return e, users, tokens
}

func decodeAuth(t *testing.T, rec *httptest.ResponseRecorder) authResp {
    t.Helper()
    var out authResp
    if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
        t.Fatalf("decode %q: %v", rec.Body.String(), err)
    }
    return out
}

func TestRegisterAndLogin(t *testing.T) {
    e, _, tokens := newAuth()

    rec := do(e, http.MethodPost, "/register",
        `{"name":"Mia","email":" Mia@Example.com ","password":"secret123","role":"artist"}`, nil)
    if rec.Code != http.StatusCreated {
        t.Fatalf("register = %d %s", rec.Code, rec.Body.String())
    }
    reg := decodeAuth(t, rec)
    if reg.User.Email != "mia@example.com" || reg.User.Role != model.RoleArtist || reg.Access.Token == "" {
        t.Fatalf("unexpected register response %+v", reg)
    }
    claims, err := utils.ParseAccessToken(secret, reg.Access.Token)
    if err != nil || claims.Role != model.RoleArtist {
        t.Fatalf("access token claims = %+v, %v", claims, err)
    }

    if rec := do(e, http.MethodPost, "/register",
        `{"name":"Mia","email":"mia@example.com","password":"secret123","role":"artist"}`, nil); rec.Code != http.StatusConflict {
        t.Fatalf("duplicate = %d", rec.Code)
    }
    if rec := do(e, http.MethodPost, "/login", `{"email":"mia@example.com","password":"nope"}`, nil); rec.Code != http.StatusUnauthorized {
        t.Fatalf("bad password = %d", rec.Code)
    }
    if rec := do(e, http.MethodPost, "/login", `{"email":"ghost@example.com","password":"secret123"}`, nil); rec.Code != http.StatusUnauthorized {
        t.Fatalf("unknown email = %d", rec.Code)
    }
    rec = do(e, http.MethodPost, "/login", `{"email":"MIA@example.com","password":"secret123"}`, nil)
    if rec.Code != http.StatusOK {
        t.Fatalf("login = %d", rec.Code)
    }
    if got := tokens.active(); got != 2 {
        t.Fatalf("active refresh tokens = %d, want 2", got)
    }
}

func TestRegisterValidation(t *testing.T) {
    e, _, _ := newAuth()
    cases := map[string]string{
        "admin role":     `{"name":"A","email":"a@example.com","password":"secret123","role":"admin"}`,
        "missing name":   `{"email":"a@example.com","password":"secret123","role":"planner"}`,
        "short password": `{"name":"A","email":"a@example.com","password":"x","role":"planner"}`,
        "bad email":      `{"name":"A","email":"nope","password":"secret123","role":"planner"}`,
    }
    for name, body := range cases {
        if rec := do(e, http.MethodPost, "/register", body, nil); rec.Code != http.StatusBadRequest {
            t.Errorf("%s: status = %d", name, rec.Code)
        }
    }
}

func TestRefreshRotatesAndLogout(t *testing.T) {
    e, _, tokens := newAuth()
    reg := decodeAuth(t, do(e, http.MethodPost, "/register",
        `{"name":"Pat","email":"pat@example.com","password":"secret123","role":"planner"}`, nil))

    body := `{"refresh_token":"` + reg.Refresh.Token + `"}`
    rec := do(e, http.MethodPost, "/refresh", body, nil)
    if rec.Code != http.StatusOK {
        t.Fatalf("refresh = %d", rec.Code)
    }
    next := decodeAuth(t, rec)
    if next.Refresh.Token == reg.Refresh.Token {
        t.Fatal("refresh token not rotated")
    }
    if rec := do(e, http.MethodPost, "/refresh", body, nil); rec.Code != http.StatusUnauthorized {
        t.Fatalf("reused refresh = %d", rec.Code)
    }

    if rec := do(e, http.MethodPost, "/logout", `{"refresh_token":"`+next.Refresh.Token+`"}`, nil); rec.Code != http.StatusNoContent {
        t.Fatalf("logout one = %d", rec.Code)
    }
    if tokens.active() != 0 {
        t.Fatalf("active = %d after logout", tokens.active())
    }

    login := decodeAuth(t, do(e, http.MethodPost, "/login", `{"email":"pat@example.com","password":"secret123"}`, nil))
    do(e, http.MethodPost, "/login", `{"email":"pat@example.com","password":"secret123"}`, nil)
    rec = do(e, http.MethodPost, "/logout", "", map[string]string{"Authorization": "Bearer " + login.Access.Token})
    if rec.Code != http.StatusNoContent || tokens.active() != 0 {
        t.Fatalf("logout all = %d, active = %d", rec.Code, tokens.active())
    }
    if rec := do(e, http.MethodPost, "/logout", "", nil); rec.Code != http.StatusBadRequest {
        t.Fatalf("anonymous logout = %d", rec.Code)
    }
}

// ---- webhook ----

// publishOnly satisfies service.EventStore; only Publish is reachable from
// the webhook path.
type publishOnly struct {
    service.EventStore
    published []uint64
}

func (p *publishOnly) Publish(_ context.Context, id uint64, _ time.Time) error {
    p.published = append(p.published, id)
    return nil
}

func TestWebhook(t *testing.T) {
    store := &publishOnly{}
    svc := service.NewEventService(store, nil, nil, config.PaymentConfig{WebhookSecret: "whsec"})
    e := newEcho()
    e.POST("/webhook", NewEventHandler(svc).Webhook)

    body := `{"type":"checkout.session.completed","session_id":"cs_1","metadata":{"event_id":"42"}}`
    if rec := do(e, http.MethodPost, "/webhook", body, map[string]string{payment.SignatureHeader: "bad"}); rec.Code != http.StatusUnauthorized {
        t.Fatalf("bad signature = %d", rec.Code)
    }
    rec := do(e, http.MethodPost, "/webhook", body, map[string]string{payment.SignatureHeader: payment.Sign("whsec", []byte(body))})
    if rec.Code != http.StatusOK {
        t.Fatalf("signed = %d %s", rec.Code, rec.Body.String())
    }
    if len(store.published) != 1 || store.published[0] != 42 {
        t.Fatalf("published = %v", store.published)
    }

    garbage := `{"type":`
    rec = do(e, http.MethodPost, "/webhook", garbage, map[string]string{payment.SignatureHeader: payment.Sign("whsec", []byte(garbage))})
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("malformed = %d", rec.Code)
    }
}

func TestDeclineRejectsMalformedBody(t *testing.T) {
    e := newEcho()
    e.POST("/v1/booking-requests/:id/decline", (&BookingHandler{}).Decline)

    rec := do(e, http.MethodPost, "/v1/booking-requests/7/decline", `{"response": `, nil)
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("status = %d, want 400", rec.Code)
    }
    if msg := errorOf(t, rec); msg != "invalid body" {
        t.Fatalf("error = %q", msg)
    }
}
