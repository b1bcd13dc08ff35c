package payment

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "sync/atomic"
    "testing"
    "time"

    "github.com/goccy/go-json"

    "github.com/iliyamo/artist-booking/internal/config"
)

func testConfig(url string) config.PaymentConfig {
    return config.PaymentConfig{
        Required: true, CheckoutURL: url, APIKey: "sk_test", WebhookSecret: "whsec",
        SuccessURL: "https://app/ok", CancelURL: "https://app/cancel", Currency: "aud", Timeout: time.Second,
    }
}

func TestCreateCheckout(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if got := r.Header.Get("Authorization"); got != "Bearer sk_test" {
            t.Errorf("authorization = %q", got)
        }
        var req CheckoutRequest
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            t.Errorf("decode: %v", err)
        }
        if req.Currency != "aud" || req.SuccessURL != "https://app/ok" || req.Metadata["event_id"] != "12" {
            t.Errorf("unexpected request %+v", req)
        }
        _ = json.NewEncoder(w).Encode(CheckoutSession{ID: "cs_1", URL: "https://pay/cs_1"})
    }))
    defer srv.Close()

    c := NewClient(testConfig(srv.URL))
    sess, err := c.CreateCheckout(context.Background(), CheckoutRequest{
        Reference: "event:12", AmountCents: 1500, Metadata: map[string]string{"event_id": "12"},
    })
    if err != nil {
        t.Fatal(err)
    }
    if sess.ID != "cs_1" || sess.URL != "https://pay/cs_1" {
        t.Fatalf("session = %+v", sess)
    }
}

func TestCreateCheckoutNotConfigured(t *testing.T) {
    c := NewClient(testConfig(""))
    if _, err := c.CreateCheckout(context.Background(), CheckoutRequest{}); !errors.Is(err, ErrNotConfigured) {
        t.Fatalf("err = %v", err)
    }
}

func TestBreakerOpensAfterServerErrors(t *testing.T) {
    var calls atomic.Int32
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        calls.Add(1)
        http.Error(w, "boom", http.StatusBadGateway)
    }))
    defer srv.Close()

    c := NewClient(testConfig(srv.URL))
    for i := 0; i < 5; i++ {
        var se *StatusError
        if _, err := c.CreateCheckout(context.Background(), CheckoutRequest{}); !errors.As(err, &se) {
            t.Fatalf("call %d: err = %v", i, err)
        }
    }
    if _, err := c.CreateCheckout(context.Background(), CheckoutRequest{}); !errors.Is(err, ErrUnavailable) {
        t.Fatalf("after 5 failures err = %v, want ErrUnavailable", err)
    }
    if calls.Load() != 5 {
        t.Fatalf("server saw %d calls, want 5", calls.Load())
    }
}

func TestClientErrorsDoNotTrip(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        http.Error(w, "bad amount", http.StatusBadRequest)
    }))
    defer srv.Close()

    c := NewClient(testConfig(srv.URL))
    for i := 0; i < 8; i++ {
        var se *StatusError
        if _, err := c.CreateCheckout(context.Background(), CheckoutRequest{}); !errors.As(err, &se) || se.Code != 400 {
            t.Fatalf("call %d: err = %v", i, err)
        }
    }
}

func TestParseWebhook(t *testing.T) {
    body := []byte(`{"type":"checkout.session.completed","session_id":"cs_1","metadata":{"event_id":"12"}}`)
    ev, err := ParseWebhook("whsec", body, Sign("whsec", body))
    if err != nil {
        t.Fatal(err)
    }
    id, err := ev.EventID()
    if !ev.Completed() || err != nil || id != 12 {
        t.Fatalf("event = %+v id = %d err = %v", ev, id, err)
    }
    if _, err := ParseWebhook("whsec", body, Sign("other", body)); !errors.Is(err, ErrBadSignature) {
        t.Fatalf("bad signature err = %v", err)
    }
    if _, err := ParseWebhook("", body, ""); !errors.Is(err, ErrNotConfigured) {
        t.Fatalf("no secret err = %v", err)
    }
}
