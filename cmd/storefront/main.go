package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/graceseason/storefront/internal/coordinator"
	"github.com/graceseason/storefront/internal/coordinator/finalizelog/sqlite"
	"github.com/graceseason/storefront/internal/pkg/cache"
	"github.com/graceseason/storefront/internal/pkg/config"
	"github.com/graceseason/storefront/internal/pkg/telemetry"
	"github.com/graceseason/storefront/internal/storefront/core/catalog"
	"github.com/graceseason/storefront/internal/storefront/core/checkout"
	"github.com/graceseason/storefront/internal/storefront/core/ports"
	"github.com/graceseason/storefront/internal/storefront/infra/adapters/kafka"
	"github.com/graceseason/storefront/internal/storefront/infra/adapters/razorpay"
	"github.com/graceseason/storefront/internal/storefront/infra/adapters/redisstore"
	"github.com/graceseason/storefront/internal/storefront/infra/adapters/shopify"
	"github.com/graceseason/storefront/internal/storefront/infra/httpx"
)

func main() {
	if err := run(); err != nil {
		slog.Error("storefront exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	telemetry.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	finalizeLog, err := sqlite.Open(cfg.FinalizeLogPath)
	if err != nil {
		return fmt.Errorf("open finalize log: %w", err)
	}
	defer finalizeLog.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// Sessions and categories degrade; checkout itself does not need redis.
		slog.Warn("redis unreachable at startup", "addr", cfg.RedisAddr, "error", err)
	}
	redisCache := cache.NewRedisCache(rdb, cfg.ServiceName)

	var publisher ports.EventPublisher = kafka.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		p := kafka.NewPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
		defer p.Close()
		publisher = p
	}

	gateway := razorpay.NewClient(razorpay.Config{
		KeyID:     cfg.Razorpay.KeyID,
		KeySecret: cfg.Razorpay.KeySecret,
		BaseURL:   cfg.Razorpay.BaseURL,
		Timeout:   cfg.Razorpay.Timeout,
	}, nil)
	commerce := shopify.NewClient(shopify.Config{
		StoreDomain: cfg.Shopify.StoreDomain,
		AccessToken: cfg.Shopify.AccessToken,
		APIVersion:  cfg.Shopify.APIVersion,
		Timeout:     cfg.Shopify.Timeout,
	}, nil)

	sessions := redisstore.NewSessionStore(redisCache)
	pipeline := coordinator.NewPipeline(finalizeLog, commerce, publisher, coordinator.WithInFlightWindow(cfg.Shopify.Timeout))
	finalizer := checkout.NewFinalizer(checkout.FinalizerConfig{
		KeySecret:   cfg.Razorpay.KeySecret,
		Currency:    cfg.Checkout.Currency,
		CountryCode: cfg.Checkout.CountryCode,
		Country:     cfg.Checkout.Country,
	}, pipeline)

	handler := httpx.NewHandler(httpx.Deps{
		Intents:     checkout.NewIntentCreator(gateway, redisCache, cfg.Checkout.Currency),
		Finalizer:   finalizer,
		Completion:  checkout.NewCompletionHandler(sessions, finalizer),
		Sessions:    sessions,
		Categories:  catalog.NewCategories(commerce, redisCache),
		FinalizeLog: finalizeLog,
		Widget: httpx.WidgetConfig{
			KeyID:       cfg.Razorpay.KeyID,
			Currency:    cfg.Checkout.Currency,
			Name:        cfg.Checkout.MerchantName,
			Description: cfg.Checkout.Description,
		},
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(httpx.NewRouter(handler, cfg.RequestTimeout), "storefront"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("storefront listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
