// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// MailEvent is published by the API when MAIL_TRANSPORT=amqp and consumed
// by cmd/mailer, which performs the actual SMTP delivery.
type MailEvent struct {
    To       string    `json:"to"`
    Subject  string    `json:"subject"`
    Body     string    `json:"body"`
    QueuedAt time.Time `json:"queued_at"`
}
