// Package payment talks to the external checkout-session endpoint used to
// charge for publishing an event, and verifies the webhook it calls back.
package payment

import (
    "bytes"
    "context"
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
    "errors"
    "fmt"
    "io"
    "net/http"
    "strconv"
    "time"

    "github.com/goccy/go-json"
    gobreaker "github.com/sony/gobreaker/v2"

    "github.com/iliyamo/artist-booking/internal/config"
    "github.com/iliyamo/artist-booking/internal/logging"
    "github.com/iliyamo/artist-booking/internal/metrics"
)

const breakerName = "payment-api"

// SignatureHeader carries the hex HMAC of a webhook body.
const SignatureHeader = "X-Payment-Signature"

var (
    // ErrNotConfigured is returned when no checkout URL is set.
    ErrNotConfigured = errors.New("payment provider not configured")
    // ErrUnavailable is returned while the circuit breaker is open.
    ErrUnavailable = errors.New("payment provider unavailable")
    // ErrBadSignature is returned for webhooks that fail verification.
    ErrBadSignature = errors.New("invalid webhook signature")
    // ErrMalformed is returned for signed webhooks that do not decode.
    ErrMalformed = errors.New("malformed webhook body")
)

// StatusError is a non-2xx answer from the provider.
type StatusError struct {
    Code int
    Body string
}

func (e *StatusError) Error() string {
    return fmt.Sprintf("payment provider returned %d: %s", e.Code, e.Body)
}

// CheckoutRequest describes the charge for one event.
type CheckoutRequest struct {
    Reference   string            `json:"client_reference_id"`
    AmountCents int               `json:"amount"`
    Currency    string            `json:"currency"`
    Description string            `json:"description"`
    SuccessURL  string            `json:"success_url"`
    CancelURL   string            `json:"cancel_url"`
    Metadata    map[string]string `json:"metadata,omitempty"`
}

// CheckoutSession is the provider's answer: the hosted page to redirect to.
type CheckoutSession struct {
    ID  string `json:"id"`
    URL string `json:"url"`
}

// WebhookEvent is the subset of the provider callback the service reads.
type WebhookEvent struct {
    Type      string            `json:"type"`
    SessionID string            `json:"session_id"`
    Reference string            `json:"client_reference_id"`
    Metadata  map[string]string `json:"metadata"`
}

// EventID extracts the event id placed in the checkout metadata.
func (w WebhookEvent) EventID() (uint64, error) {
    return strconv.ParseUint(w.Metadata["event_id"], 10, 64)
}

// Completed reports whether the callback confirms a finished payment.
func (w WebhookEvent) Completed() bool { return w.Type == "checkout.session.completed" }

// Client creates checkout sessions behind a circuit breaker.  Provider 4xx
// answers are caller mistakes and do not count as failures.
type Client struct {
    cfg  config.PaymentConfig
    http *http.Client
    cb   *gobreaker.CircuitBreaker[*CheckoutSession]
}

// NewClient builds a client for cfg.
func NewClient(cfg config.PaymentConfig) *Client {
    metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
    cb := gobreaker.NewCircuitBreaker[*CheckoutSession](gobreaker.Settings{
        Name:        breakerName,
        MaxRequests: 1,
        Interval:    time.Minute,
        Timeout:     30 * time.Second,
        ReadyToTrip: func(counts gobreaker.Counts) bool {
            return counts.ConsecutiveFailures >= 5
        },
        IsSuccessful: func(err error) bool {
            var se *StatusError
            return err == nil || (errors.As(err, &se) && se.Code < 500)
        },
        OnStateChange: func(name string, from, to gobreaker.State) {
            logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state transition")
            metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
        },
    })
    timeout := cfg.Timeout
    if timeout <= 0 {
        timeout = 10 * time.Second
    }
    return &Client{cfg: cfg, http: &http.Client{Timeout: timeout}, cb: cb}
}

// CreateCheckout asks the provider for a hosted checkout page.
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
    if c.cfg.CheckoutURL == "" {
        return nil, ErrNotConfigured
    }
    if req.Currency == "" {
        req.Currency = c.cfg.Currency
    }
    if req.SuccessURL == "" {
        req.SuccessURL = c.cfg.SuccessURL
    }
    if req.CancelURL == "" {
        req.CancelURL = c.cfg.CancelURL
    }
    sess, err := c.cb.Execute(func() (*CheckoutSession, error) {
        return c.post(ctx, req)
    })
    switch {
    case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
        metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
        return nil, ErrUnavailable
    case err != nil:
        metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
        return nil, err
    }
    metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
    return sess, nil
}

func (c *Client) post(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
    body, err := json.Marshal(req)
    if err != nil {
        return nil, err
    }
    httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.CheckoutURL, bytes.NewReader(body))
    if err != nil {
        return nil, err
    }
    httpReq.Header.Set("Content-Type", "application/json")
    if c.cfg.APIKey != "" {
        httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
    }
    resp, err := c.http.Do(httpReq)
    if err != nil {
        return nil, err
    }
    defer resp.Body.Close()
    raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
    if err != nil {
        return nil, err
    }
    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        return nil, &StatusError{Code: resp.StatusCode, Body: string(raw)}
    }
    var sess CheckoutSession
    if err := json.Unmarshal(raw, &sess); err != nil {
        return nil, fmt.Errorf("decode checkout session: %w", err)
    }
    if sess.URL == "" {
        return nil, errors.New("checkout session without url")
    }
    return &sess, nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
    mac := hmac.New(sha256.New, []byte(secret))
    mac.Write(body)
    return hex.EncodeToString(mac.Sum(nil))
}

// ParseWebhook verifies the signature header and decodes the callback.
func ParseWebhook(secret string, body []byte, signature string) (WebhookEvent, error) {
    var ev WebhookEvent
    if secret == "" {
        return ev, ErrNotConfigured
    }
    want := Sign(secret, body)
    if !hmac.Equal([]byte(want), []byte(signature)) {
        return ev, ErrBadSignature
    }
    if err := json.Unmarshal(body, &ev); err != nil {
        return ev, fmt.Errorf("%w: %v", ErrMalformed, err)
    }
    return ev, nil
}

func stateToFloat(s gobreaker.State) float64 {
    switch s {
    case gobreaker.StateHalfOpen:
        return 1
    case gobreaker.StateOpen:
        return 2
    default:
        return 0
    }
}
