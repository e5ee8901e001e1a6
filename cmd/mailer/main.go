// Command mailer drains the outbound mail queue filled by the API server
// (MAIL_TRANSPORT=amqp) and delivers each message over SMTP.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iliyamo/codementorx/internal/config"
	"github.com/iliyamo/codementorx/internal/logging"
	"github.com/iliyamo/codementorx/internal/notify"
	"github.com/iliyamo/codementorx/internal/queue"
)

func main() {
	_ = godotenv.Load()

	logger, err := logging.New(logging.ConfigFromEnv())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	amqpCfg := config.LoadAMQPConfig()
	smtp := notify.NewSMTPSender(config.LoadMailConfig())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("mailer started", zap.String("queue", amqpCfg.MailQueue))
	err = queue.StartMailConsumer(ctx, amqpCfg.URL, amqpCfg.MailQueue, smtp, logger.Named("consumer"))
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mailer stopped", zap.Error(err))
		return
	}
	logger.Info("mailer stopped")
}
