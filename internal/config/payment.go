package config

import "time"

// PaymentConfig configures the checkout-session endpoint used when an event
// is published.  When Required is false events are published directly.
type PaymentConfig struct {
    Required      bool
    CheckoutURL   string
    APIKey        string
    WebhookSecret string
    SuccessURL    string
    CancelURL     string
    PublishCents  int
    Currency      string
    Timeout       time.Duration
}

func LoadPaymentConfig() PaymentConfig {
    return PaymentConfig{
        Required:      envBool("PAYMENT_REQUIRED", false),
        CheckoutURL:   envStr("PAYMENT_CHECKOUT_URL", ""),
        APIKey:        envStr("PAYMENT_API_KEY", ""),
        WebhookSecret: envStr("PAYMENT_WEBHOOK_SECRET", ""),
        SuccessURL:    envStr("PAYMENT_SUCCESS_URL", "http://localhost:3000/events?paid=1"),
        CancelURL:     envStr("PAYMENT_CANCEL_URL", "http://localhost:3000/events"),
        PublishCents:  envInt("PAYMENT_PUBLISH_CENTS", 1500),
        Currency:      envStr("PAYMENT_CURRENCY", "aud"),
        Timeout:       envDur("PAYMENT_TIMEOUT", 10*time.Second),
    }
}
