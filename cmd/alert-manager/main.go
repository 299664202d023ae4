// cmd/alert-manager/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dealwatch/internal/alert"
	commonaws "dealwatch/internal/common/aws"
	"dealwatch/internal/common/cache"
	"dealwatch/internal/common/config"
	"dealwatch/internal/common/logger"
	"dealwatch/internal/common/observability"
	"dealwatch/internal/common/retry"
	"dealwatch/internal/healthkart"
	"dealwatch/internal/notify"
	"dealwatch/internal/scheduler"
	"dealwatch/internal/server"
	"dealwatch/internal/telegram"
)

// retryWithBackoff attempts to execute a function with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting alert manager",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.Strings("categories", cfg.Alerts.Categories),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Optional page cache: warn and continue without it on failure ---
	var pageCache cache.Cache
	if cfg.Redis.Enabled {
		var redisCache *cache.RedisCache
		err = retryWithBackoff(func() error {
			var err error
			redisCache, err = cache.NewRedis(cfg.Redis)
			if err != nil {
				return err
			}
			return redisCache.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Warn("redis unavailable, running without page cache", zap.Error(err))
		} else {
			defer redisCache.Close()
			pageCache = redisCache
			zapLog.Info("redis connected")
		}
	}

	// --- Catalog, Telegram and notification wiring ---
	catalogClient := healthkart.NewClient(cfg.HealthKart, log, pageCache)
	transformService := healthkart.NewTransformService(log)

	telegramClient := telegram.NewClient(cfg.Telegram.BotToken, config.GetDuration(cfg.Telegram.Timeout))

	var emailSender notify.EmailSender
	var smsSender notify.SMSSender
	if cfg.Notifications.Email.Enabled {
		sesClient, err := commonaws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Warn("SES unavailable, email channel disabled", zap.Error(err))
		} else {
			emailSender = sesClient
		}
	}
	if cfg.Notifications.SMS.Enabled {
		snsClient, err := commonaws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Warn("SNS unavailable, SMS channel disabled", zap.Error(err))
		} else {
			smsSender = snsClient
		}
	}

	notifyService := notify.NewService(notify.ServiceOptions{
		Telegram: telegramClient,
		Email:    emailSender,
		SMS:      smsSender,
		Retrier:  retry.New(log),
		RetryOpts: &retry.Options{
			MaxRetries:        cfg.Telegram.MaxRetries,
			Delay:             config.GetDuration(cfg.Telegram.RetryDelay),
			BackoffMultiplier: 2,
		},
		MaxDeals: cfg.Alerts.MaxDealsSent,
		Config:   cfg.Notifications,
		Logger:   log,
	})

	status := notifyService.TestConnection(ctx, cfg.Telegram.ChatID)
	zapLog.Info("telegram connectivity check",
		zap.Bool("identityOk", status.IdentityOK),
		zap.Bool("canaryDelivered", status.CanaryDelivered),
		zap.String("bot", status.BotUsername),
	)

	useCase := alert.NewUseCase(alert.UseCaseOptions{
		Catalog:    catalogClient,
		Transform:  transformService,
		Notifier:   notifyService,
		Obs:        obs,
		Logger:     log,
		ChatID:     cfg.Telegram.ChatID,
		Categories: cfg.Alerts.Categories,
		Criteria:   server.CriteriaFromConfig(cfg.Alerts),
		MaxDeals:   cfg.Alerts.MaxDealsSent,
	})

	// --- Scheduler ---
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(useCase, time.Duration(cfg.Scheduler.Interval)*time.Minute, log)
		go sched.Run(ctx)
	}

	// --- HTTP server ---
	handler := server.NewHandler(useCase, cfg.App, cfg.Alerts, log)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.NewRouter(handler),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
}
