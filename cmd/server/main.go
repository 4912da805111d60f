package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/logger"
	"github.com/example/storefront/internal/routes"
	"github.com/example/storefront/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}

	revocations, closeStore := newRevocationStore(cfg, log)
	defer closeStore()

	notifier := services.NewNotificationService(
		services.NewSMSService(cfg.SMSGatewayURL, cfg.SMSAPIKey),
		services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat, log),
		log,
	)

	app := routes.NewApp(routes.Dependencies{
		DB:          db,
		Config:      cfg,
		Logger:      log,
		Notifier:    notifier,
		Revocations: revocations,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	log.Info("starting server", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal("fiber.Listen error", zap.Error(err))
	}
}

// newRevocationStore uses Redis when configured and falls back to process memory.
func newRevocationStore(cfg *config.Config, log *zap.Logger) (services.RevocationStore, func()) {
	if !cfg.RedisEnabled() {
		log.Warn("REDIS_ADDR not set, revoked tokens are kept in memory")
		return services.NewMemoryRevocationStore(), func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := services.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	return services.NewRedisRevocationStore(client), func() { _ = client.Close() }
}
