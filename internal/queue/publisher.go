package queue

import (
    "context"
    "sync"
    "time"

    "github.com/goccy/go-json"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/artist-booking/internal/logging"
    "github.com/iliyamo/artist-booking/internal/metrics"
)

// Publisher sends booking lifecycle events.  Callers treat failures as
// non-fatal: the database transition has already happened.
type Publisher interface {
    Publish(ctx context.Context, ev BookingEvent) error
}

// DefaultDialTimeout bounds the TCP connect to the broker.
const DefaultDialTimeout = 2 * time.Second

// AMQPPublisher publishes to RabbitMQ.  A connection is dialled per
// publish; booking transitions are rare enough that pooling is not needed.
type AMQPPublisher struct {
    URL         string
    DialTimeout time.Duration
}

// NewAMQPPublisher returns a publisher for the broker at url.
func NewAMQPPublisher(url string) *AMQPPublisher {
    return &AMQPPublisher{URL: url, DialTimeout: DefaultDialTimeout}
}

// dialTimeout is the configured timeout, shortened to the ctx deadline.
func (p *AMQPPublisher) dialTimeout(ctx context.Context) time.Duration {
    d := p.DialTimeout
    if d <= 0 {
        d = DefaultDialTimeout
    }
    if dl, ok := ctx.Deadline(); ok {
        if left := time.Until(dl); left < d {
            d = left
        }
    }
    return d
}

// Publish declares the durable queue and sends ev as a persistent JSON
// message.  Errors are logged and returned.
func (p *AMQPPublisher) Publish(ctx context.Context, ev BookingEvent) error {
    err := p.publish(ctx, ev)
    result := "ok"
    if err != nil {
        result = "error"
        logging.Warn().Err(err).Str("type", ev.Type).Uint64("request_id", ev.RequestID).Msg("rabbitmq: publish failed")
    }
    metrics.EventsPublished.WithLabelValues(ev.Type, result).Inc()
    return err
}

func (p *AMQPPublisher) publish(ctx context.Context, ev BookingEvent) error {
    if err := ctx.Err(); err != nil {
        return err
    }
    conn, err := amqp.DialConfig(p.URL, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(p.dialTimeout(ctx)),
    })
    if err != nil {
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(
        BookingQueueName, // name
        true,             // durable
        false,            // autoDelete
        false,            // exclusive
        false,            // noWait
        nil,              // args
    ); err != nil {
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }

    return ch.PublishWithContext(ctx,
        "",               // default exchange
        BookingQueueName, // routing key = queue name
        false,            // mandatory
        false,            // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent,
            Type:         ev.Type,
            Timestamp:    time.Now().UTC(),
            Body:         body,
        },
    )
}

// Recorder keeps published events in memory.  Tests and runs without a
// broker use it.
type Recorder struct {
    mu     sync.Mutex
    events []BookingEvent
}

// Publish appends ev.
func (r *Recorder) Publish(_ context.Context, ev BookingEvent) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.events = append(r.events, ev)
    metrics.EventsPublished.WithLabelValues(ev.Type, "recorded").Inc()
    return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []BookingEvent {
    r.mu.Lock()
    defer r.mu.Unlock()
    out := make([]BookingEvent, len(r.events))
    copy(out, r.events)
    return out
}

// Types returns the type of every recorded event in order.
func (r *Recorder) Types() []string {
    evs := r.Events()
    out := make([]string, len(evs))
    for i, ev := range evs {
        out[i] = ev.Type
    }
    return out
}
