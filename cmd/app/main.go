// File: cmd/app/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"telegram-merchant-commerce/internal/config"
	"telegram-merchant-commerce/internal/domain/ports/adapter"
	pg "telegram-merchant-commerce/internal/infra/db/postgres"
	"telegram-merchant-commerce/internal/infra/logging"
	"telegram-merchant-commerce/internal/infra/metrics"
	red "telegram-merchant-commerce/internal/infra/redis"
	"telegram-merchant-commerce/internal/infra/retry"
	"telegram-merchant-commerce/internal/infra/sched"
	"telegram-merchant-commerce/internal/infra/telegram"
	"telegram-merchant-commerce/internal/infra/web"
	"telegram-merchant-commerce/internal/infra/worker"
	"telegram-merchant-commerce/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	userRepo := pg.NewUserRepo(pool)
	merchantRepo := pg.NewMerchantRepo(pool)
	tierRepo := pg.NewTierRepoCacheDecorator(pg.NewTierRepo(pool), redisClient)
	paymentRepo := pg.NewPaymentRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	ledgerRepo := pg.NewLedgerRepo(pool)
	affiliateRepo := pg.NewAffiliateRepo(pool)
	eventRepo := pg.NewWebhookEventRepo(pool)

	// ---- Platform percentages ----
	defaultFee, err := decimal.NewFromString(cfg.Platform.DefaultFeePercent)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid platform.default_fee_percent")
	}
	defaultCommission, err := decimal.NewFromString(cfg.Platform.DefaultCommissionPercent)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid platform.default_commission_percent")
	}

	// ---- Notification dispatch ----
	var sender adapter.MessageSender
	if cfg.Bot.Token != "" {
		sender, err = telegram.NewSender(&cfg.Bot, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram sender init failed")
		}
	} else {
		logger.Warn().Msg("bot.token not set, notifications are logged only")
		sender = telegram.NewNoopSender(logger)
	}
	dispatch := worker.NewDispatchPool(cfg.Bot.Workers, 256, sender, userRepo, logger)
	dispatch.Start(ctx)
	// Workers only exit on ctx.Done(), so the context must be cancelled
	// before waiting on them; the deferred cancel above would run too late.
	defer func() {
		cancel()
		dispatch.Stop()
	}()

	// ---- Use cases ----
	retryPolicy := retry.Policy{BaseDelay: cfg.Retry.BaseDelay, MaxAttempts: cfg.Retry.MaxAttempts}
	ledgerUC := usecase.NewLedgerUseCase(ledgerRepo, merchantRepo, defaultFee, logger)
	reconcileUC := usecase.NewReconcileUseCase(
		tm, eventRepo, paymentRepo, tierRepo, subRepo, affiliateRepo,
		ledgerUC, dispatch, cfg.Webhook.Provider, defaultCommission, retryPolicy, logger,
	)
	subsUC := usecase.NewSubscriptionQueryUseCase(subRepo, tm, dispatch, retryPolicy, logger)

	// ---- Background workers ----
	go func() {
		_ = sched.NewExpiryWorker(cfg.Scheduler.ExpirySweepInterval, 500, subsUC, logger).Run(ctx)
	}()
	go func() {
		_ = sched.NewStalePaymentWorker(paymentRepo, cfg.Scheduler.StaleSweepInterval, cfg.Scheduler.StalePaymentAfter, logger).Run(ctx)
	}()

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, "", cfg.Admin.JWTTTL)
	server := web.NewServer(reconcileUC, ledgerUC, subsUC, auth, rateLimiter, cfg.Webhook.HMACSecret, cfg.Webhook.RateLimit, logger)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info().Msg("shutdown signal received")
		cancel()
	}()

	logger.Info().Int("port", cfg.Webhook.Port).Msg("webhook server starting")
	if err := server.Start(ctx, cfg.Webhook.Port); err != nil {
		logger.Error().Err(err).Msg("server stopped")
	}
}
