package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/codementorx/internal/config"
	"github.com/iliyamo/codementorx/internal/logging"
	"github.com/iliyamo/codementorx/internal/queue"
)

// AMQPSender hands messages to RabbitMQ for cmd/mailer to deliver.  A
// successful publish counts as a successful send; a failed dial, declare or
// publish is returned to the caller like any other delivery failure.
type AMQPSender struct {
	cfg config.AMQPConfig
	log *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
}

func NewAMQPSender(cfg config.AMQPConfig, log *zap.Logger) *AMQPSender {
	return &AMQPSender{cfg: cfg, log: logging.OrNop(log)}
}

func (s *AMQPSender) Send(ctx context.Context, to, subject, body string) error {
	addr, err := checkRecipient(to)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(queue.MailEvent{To: addr, Subject: subject, Body: body, QueuedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal mail event: %w", err)
	}

	ch, err := s.channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(s.cfg.MailQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	if s.cfg.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.PublishTimeout)
		defer cancel()
	}
	err = ch.PublishWithContext(ctx,
		"",              // default exchange
		s.cfg.MailQueue, // routing key = queue name
		false,           // mandatory
		false,           // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         payload,
		})
	if err != nil {
		s.log.Warn("rabbitmq: publish failed", zap.String("queue", s.cfg.MailQueue), zap.Error(err))
		return fmt.Errorf("publish mail: %w", err)
	}
	return nil
}

// channel opens a channel on the shared connection, dialing again when the
// previous connection was closed by the broker.
func (s *AMQPSender) channel() (*amqp.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || s.conn.IsClosed() {
		conn, err := amqp.Dial(s.cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq dial: %w", err)
		}
		s.conn = conn
	}
	ch, err := s.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	return ch, nil
}

// Close releases the broker connection.
func (s *AMQPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || s.conn.IsClosed() {
		return nil
	}
	return s.conn.Close()
}
