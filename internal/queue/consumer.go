package queue

import (
    "context"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    "github.com/goccy/go-json"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/artist-booking/internal/logging"
)

// Consumer reads booking events from the broker and appends one line per
// event to LogPath.
type Consumer struct {
    URL     string
    LogPath string
}

// NewConsumer returns a consumer writing to logs/booking.log.
func NewConsumer(url string) *Consumer {
    return &Consumer{URL: url, LogPath: filepath.Join("logs", "booking.log")}
}

// Run connects to RabbitMQ and consumes until ctx is cancelled.  Dial
// failures are retried with exponential backoff capped at 30s and a closed
// delivery channel triggers a reconnect.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            logging.Warn().Err(err).Dur("retry_in", backoff).Msg("booking-consumer: failed to dial broker")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if errors.Is(err, context.Canceled) {
            return err
        }
        logging.Warn().Err(err).Msg("booking-consumer: consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        logging.Warn().Err(err).Msg("booking-consumer: set QoS failed")
    }
    if _, err := ch.QueueDeclare(BookingQueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(BookingQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    logging.Info().Str("queue", BookingQueueName).Msg("booking-consumer: consuming")
    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.Handle(d.Body); err != nil {
                logging.Error().Err(err).Msg("booking-consumer: handle message failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes one message body and appends its log line.
func (c *Consumer) Handle(body []byte) error {
    var ev BookingEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" {
        return errors.New("event without type")
    }
    if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    logging.Info().Str("type", ev.Type).Uint64("request_id", ev.RequestID).Uint64("booking_id", ev.BookingID).Msg("booking event recorded")
    return nil
}

// FormatLine renders ev as a single human-friendly log line.
func FormatLine(ev BookingEvent) string {
    line := fmt.Sprintf("[%s] %s | request_id=%d | artist_id=%d | planner_id=%d | actor_id=%d | event=%q | date=%s | status=%s",
        ev.OccurredAt, ev.Type, ev.RequestID, ev.ArtistID, ev.PlannerID, ev.ActorID, ev.EventName, ev.EventDate, ev.Status)
    if ev.BookingID != 0 {
        line += fmt.Sprintf(" | booking_id=%d", ev.BookingID)
    }
    if ev.StartTime != "" {
        line += fmt.Sprintf(" | time=%s-%s", ev.StartTime, ev.EndTime)
    }
    return line + "\n"
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
