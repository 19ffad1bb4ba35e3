package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// LogFileName is the file inside the event log dir that the consumer
// appends to.
const LogFileName = "reservation.log"

// StartReservationConsumer connects to RabbitMQ, declares the reservation
// queue (durable), and starts consuming messages.  Each message is
// appended to <logDir>/reservation.log as a single line.  The function
// runs a reconnect loop with exponential backoff and returns nil once
// ctx is cancelled.  Malformed messages are rejected without requeue so
// the consumer keeps going.
func StartReservationConsumer(ctx context.Context, url, logDir string, logger *slog.Logger) error {
    if logger == nil {
        logger = slog.Default()
    }
    logger = logger.With("component", "reservation-consumer")

    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return nil
        }
        conn, err := amqp.Dial(url)
        if err != nil {
            logger.Warn("failed to dial broker", "error", err, "retry_in", backoff)
            if !sleep(ctx, backoff) {
                return nil
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, logDir, logger)
        _ = conn.Close()
        if ctx.Err() != nil {
            return nil
        }
        logger.Warn("consume loop ended, reconnecting", "error", err)
        if !sleep(ctx, 2*time.Second) {
            return nil
        }
    }
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

func consumeLoop(ctx context.Context, conn *amqp.Connection, logDir string, logger *slog.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        logger.Warn("set QoS failed", "error", err)
    }

    if _, err := ch.QueueDeclare(ReservationQueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.ConsumeWithContext(ctx, ReservationQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := handleMessage(logDir, d.Body); err != nil {
            logger.Error("handle message failed", "error", err)
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func handleMessage(logDir string, body []byte) error {
    var ev ReservationEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.ReservationID == 0 {
        return errors.New("event without type or reservation id")
    }
    if err := os.MkdirAll(logDir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", logDir, err)
    }
    f, err := os.OpenFile(filepath.Join(logDir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(formatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func formatLine(ev ReservationEvent) string {
    seats := make([]string, 0, len(ev.Tickets))
    for _, t := range ev.Tickets {
        seats = append(seats, fmt.Sprintf("%d:%d-%d", t.SessionID, t.Row, t.Seat))
    }
    return fmt.Sprintf("[%s] %s | id=%s | reservation_id=%d | user_id=%d | seats=[%s]\n",
        ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.ID, ev.ReservationID, ev.UserID,
        strings.Join(seats, ","))
}
