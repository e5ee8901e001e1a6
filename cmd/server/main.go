package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iliyamo/codementorx/internal/chat"
	"github.com/iliyamo/codementorx/internal/config"
	"github.com/iliyamo/codementorx/internal/database"
	"github.com/iliyamo/codementorx/internal/handler"
	"github.com/iliyamo/codementorx/internal/logging"
	"github.com/iliyamo/codementorx/internal/middleware"
	"github.com/iliyamo/codementorx/internal/notify"
	"github.com/iliyamo/codementorx/internal/repository"
	"github.com/iliyamo/codementorx/internal/router"
	"github.com/iliyamo/codementorx/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	logger, err := logging.New(logging.ConfigFromEnv())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load() // Load environment config
	mailCfg := config.LoadMailConfig()
	flowCfg := config.LoadAuthFlowConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unavailable; rate limiting and profile cache disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	sender, closeSender := newSender(mailCfg, logger)
	defer closeSender()

	users := repository.NewUserRepo(db)
	refresh := repository.NewTokenRepo(db)
	templates := notify.Templates{AppName: mailCfg.AppName, FrontendURL: flowCfg.FrontendURL}
	issuer := service.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays, refresh)

	verification := service.NewVerification(users, repository.NewOTPRepo(db), sender, templates,
		issuer, flowCfg.OTPTTL, cfg.BcryptCost, logger.Named("verification"))
	reset := service.NewReset(users, repository.NewResetTokenRepo(db), sender, templates,
		flowCfg.ResetTokenTTL, cfg.BcryptCost, logger.Named("reset"))
	accounts := service.NewAccounts(users, refresh, issuer)

	chatClient := chat.NewOpenRouterClient(config.LoadChatConfig(), logger.Named("chat"))
	defer func() { _ = chatClient.Close() }()

	e := router.New(config.LoadCORSConfig(), logger.Named("http"))
	router.RegisterRoutes(e)
	router.RegisterAuth(e,
		handler.NewAuthHandler(verification, reset, accounts, cfg.RequestTimeout, logger.Named("auth")),
		cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger.Named("ratelimit")),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterChat(e, handler.NewChatHandler(chatClient, logger.Named("chat")))

	addr := ":" + cfg.Port // Address string with port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// newSender picks the mail transport named by MAIL_TRANSPORT.
func newSender(cfg config.MailConfig, logger *zap.Logger) (notify.Sender, func()) {
	switch cfg.Transport {
	case config.MailTransportAMQP:
		s := notify.NewAMQPSender(config.LoadAMQPConfig(), logger.Named("mail"))
		return s, func() { _ = s.Close() }
	case config.MailTransportLog:
		return notify.NewLogSender(logger.Named("mail")), func() {}
	default:
		return notify.NewSMTPSender(cfg), func() {}
	}
}
