package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/safar/go-shop-checkout/internal/api"
	"github.com/safar/go-shop-checkout/internal/auth"
	"github.com/safar/go-shop-checkout/internal/cart"
	"github.com/safar/go-shop-checkout/internal/checkout"
	"github.com/safar/go-shop-checkout/internal/config"
	"github.com/safar/go-shop-checkout/internal/coupon"
	"github.com/safar/go-shop-checkout/internal/database"
	"github.com/safar/go-shop-checkout/internal/idempotency"
	"github.com/safar/go-shop-checkout/internal/logging"
	"github.com/safar/go-shop-checkout/internal/outbox"
	"github.com/safar/go-shop-checkout/internal/referral"
	"github.com/safar/go-shop-checkout/internal/store"
	"github.com/safar/go-shop-checkout/internal/tracing"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logging.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	tracing.InstallPropagator()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		log.Fatal("connect to database", zap.Error(err))
	}
	defer db.Close()

	log.Info("connected to database")

	deps := api.Deps{
		DB:        db,
		Log:       log,
		Checkout:  checkout.NewService(db, log.Named("checkout"), checkout.NewShippingPolicy(cfg.Shipping)),
		Coupons:   coupon.NewService(db, log.Named("coupon"), nil),
		Carts:     cart.NewService(db, log.Named("cart")),
		Accounts:  referral.NewService(db, log.Named("referral"), cfg.Referral),
		Tokens:    auth.NewTokens(cfg.Auth),
		RateRPS:   cfg.RateLimit.RPS,
		RateBurst: cfg.RateLimit.Burst,
	}

	if cfg.Redis.URL != "" {
		rdb, err := idempotency.NewClient(cfg.Redis.URL)
		if err != nil {
			log.Fatal("redis client", zap.Error(err))
		}
		defer rdb.Close()

		deps.Idempotency = idempotency.NewStore(rdb, cfg.Redis.IdempotencyTTL)
		log.Info("checkout idempotency enabled", zap.Duration("ttl", cfg.Redis.IdempotencyTTL))
	}

	var workers sync.WaitGroup
	if len(cfg.Kafka.Brokers) > 0 {
		writer := outbox.NewKafkaWriter(cfg.Kafka.Brokers)
		defer writer.Close()

		dispatcher := outbox.NewDispatcher(log.Named("outbox"), writer, cfg.Kafka.OutboxTopic)
		relay := outbox.NewRelay(log.Named("outbox"), store.NewOutboxStore(db), dispatcher, cfg.Kafka.RelayID)

		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("outbox relay stopped", zap.Error(err))
			}
		}()
		log.Info("outbox relay started",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.OutboxTopic))
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown", zap.Error(err))
	}

	workers.Wait()
	log.Info("stopped")
}
