// Package queue contains the background consumer that drains the outbound
// mail queue and hands each message to a delivery transport.
package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Deliverer performs the final delivery of a queued message.
type Deliverer interface {
    Send(ctx context.Context, to, subject, body string) error
}

// ErrMalformedEvent marks payloads that can never be delivered.
var ErrMalformedEvent = errors.New("malformed mail event")

// StartMailConsumer connects to RabbitMQ, declares the mail queue (durable)
// and delivers every message through d.  It reconnects with exponential
// backoff when the broker goes away and returns only when ctx is cancelled.
// Messages that fail delivery are rejected without requeue so a poison
// message cannot spin the loop.
func StartMailConsumer(ctx context.Context, url, queueName string, d Deliverer, log *zap.Logger) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Warn("mail-consumer: failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, queueName, d, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn("mail-consumer: consume loop ended; reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queueName string, d Deliverer, log *zap.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(10, 0, false); err != nil {
        log.Warn("mail-consumer: set QoS failed", zap.Error(err))
    }

    if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case m, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := HandleMessage(ctx, m.Body, d); err != nil {
                log.Error("mail-consumer: delivery failed", zap.Error(err))
                _ = m.Nack(false, false)
                continue
            }
            _ = m.Ack(false)
        }
    }
}

// HandleMessage decodes one queued payload and delivers it.
func HandleMessage(ctx context.Context, body []byte, d Deliverer) error {
    var ev MailEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
    }
    if ev.To == "" || ev.Subject == "" {
        return fmt.Errorf("%w: missing recipient or subject", ErrMalformedEvent)
    }
    return d.Send(ctx, ev.To, ev.Subject, ev.Body)
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
