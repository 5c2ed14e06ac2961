// Package app собирает зависимости и управляет жизненным циклом сервиса.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/nikitagorshkov/farmmarket/internal/api"
	"github.com/nikitagorshkov/farmmarket/internal/cart"
	healthcheck "github.com/nikitagorshkov/farmmarket/internal/health"
	"github.com/nikitagorshkov/farmmarket/internal/messaging/kafka"
	"github.com/nikitagorshkov/farmmarket/internal/service/checkout"
	"github.com/nikitagorshkov/farmmarket/internal/service/idempotency"
	"github.com/nikitagorshkov/farmmarket/internal/service/lifecycle"
	"github.com/nikitagorshkov/farmmarket/internal/service/outbox"
	"github.com/nikitagorshkov/farmmarket/internal/service/recommend"
	"github.com/nikitagorshkov/farmmarket/internal/version"
)

// Run запускает сервис и блокируется до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close(logger)

	lifecycleSvc := lifecycle.NewServiceWithKafka(
		deps.Orders, deps.Outbox, deps.Timeline, deps.Producer,
		logger.WithField("layer", "lifecycle"),
	)
	checkoutSvc := checkout.NewServiceWithKafka(
		deps.Products, deps.Orders, deps.Outbox, deps.Timeline,
		lifecycleSvc, deps.Producer,
		logger.WithField("layer", "checkout"),
	)
	recommendSvc := recommend.NewService(deps.Products, logger.WithField("layer", "recommend"))

	server := api.NewServer(api.Deps{
		Products:    deps.Products,
		Carts:       cart.NewStore(),
		Checkout:    checkoutSvc,
		Lifecycle:   lifecycleSvc,
		Recommend:   recommendSvc,
		Idempotency: deps.Idempotency,
		Logger:      logger.WithField("layer", "api"),
	})

	healthHandler := healthcheck.NewHandler(version.String())
	if deps.Store != nil {
		store := deps.Store
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return store.Ping(pingCtx)
		}))
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	// Фоновые воркеры: доставка событий из outbox и очистка idempotency-ключей.
	if deps.Producer != nil {
		worker := outbox.NewWorker(
			deps.Outbox,
			kafka.NewOutboxPublisher(deps.Producer, kafka.TopicOrderEvents),
			outbox.WithDLQPublisher(kafka.NewOutboxPublisher(deps.Producer, kafka.TopicDeadLetterQueue)),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithLogger(logger.WithField("layer", "outbox-worker")),
		)
		go worker.Run(ctx)
	} else {
		logger.Info("kafka is not configured, outbox worker is disabled")
	}

	cleanup := idempotency.NewCleanupWorker(
		deps.Idempotency,
		idempotency.WithLogger(logger.WithField("layer", "idempotency-cleanup")),
	)
	go cleanup.Run(ctx)

	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("http server is listening on %s", cfg.HTTPAddr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("http server shutdown with error")
		}
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer поднимает служебный HTTP: /metrics и health-probes.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("metrics are available at %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
