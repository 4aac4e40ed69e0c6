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

	"golang.org/x/sync/errgroup"

	"sidesa/internal/auth/token"
	contentHandler "sidesa/internal/content/handler"
	contentService "sidesa/internal/content/service"
	contentStore "sidesa/internal/content/store"
	"sidesa/internal/disclosure/adapters"
	disclosureHandler "sidesa/internal/disclosure/handler"
	disclosureMetrics "sidesa/internal/disclosure/metrics"
	disclosureService "sidesa/internal/disclosure/service"
	"sidesa/internal/platform/config"
	"sidesa/internal/platform/httpserver"
	"sidesa/internal/platform/kafka"
	"sidesa/internal/platform/logger"
	"sidesa/internal/platform/metrics"
	ratelimitMetrics "sidesa/internal/ratelimit/metrics"
	ratelimitmw "sidesa/internal/ratelimit/middleware"
	ratelimitModels "sidesa/internal/ratelimit/models"
	ratelimitStore "sidesa/internal/ratelimit/store"
	registryMetrics "sidesa/internal/registry/metrics"
	registryService "sidesa/internal/registry/service"
	sessionService "sidesa/internal/session/service"
	httptransport "sidesa/internal/transport/http"
	"sidesa/pkg/platform/audit/recorder"
	"sidesa/pkg/platform/audit/relay"
	authmw "sidesa/pkg/platform/middleware/auth"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Auth.AdminTokenHash == "" {
		log.Warn("ADMIN_TOKEN_HASH not set; admin override routes will refuse every call")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	if cfg.RegistryFixture != "" {
		if err := importFixture(ctx, cfg.RegistryFixture, b.registry, log); err != nil {
			return err
		}
	}

	registry := registryService.New(b.registry, b.registry,
		registryService.WithTimeout(cfg.Disclosure.RegistryTimeout),
		registryService.WithLogger(log),
		registryService.WithMetrics(registryMetrics.New()),
	)
	auditRecorder := recorder.New(b.audit,
		recorder.WithLogger(log),
		recorder.WithMetrics(recorder.NewMetrics()),
	)
	disclosures := disclosureService.New(
		adapters.NewRegistryAdapter(registry),
		b.disclosures,
		auditRecorder,
		b.tx,
		disclosureService.WithLogger(log),
		disclosureService.WithMetrics(disclosureMetrics.New()),
		disclosureService.WithIdempotency(b.idempotency, cfg.Disclosure.IdempotencyTTL),
		disclosureService.WithStoreTimeout(cfg.Disclosure.StoreTimeout),
	)

	var sessions authmw.SessionToucher
	if b.sessions != nil {
		sessions = sessionService.New(b.sessions,
			sessionService.WithIdleTimeout(cfg.Session.IdleTimeout),
			sessionService.WithLogger(log),
		)
	} else {
		log.Warn("REDIS_URL not set; operator sessions are not tracked")
	}

	limiterOpts := []ratelimitmw.Option{ratelimitmw.WithMetrics(ratelimitMetrics.New())}
	if b.redis != nil {
		limiterOpts = append(limiterOpts, ratelimitmw.WithFallback(ratelimitStore.NewInMemoryStore()))
	}
	limiter := ratelimitmw.New(b.rateLimits,
		ratelimitModels.Policy{Limit: cfg.RateLimit.OperatorLimit, Window: cfg.RateLimit.OperatorWindow},
		log,
		limiterOpts...,
	)

	tokens := token.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer)
	router := httptransport.NewRouter(httptransport.Deps{
		Disclosure:     disclosureHandler.New(disclosures, log),
		Content:        contentHandler.New(contentService.New(contentStore.NewInMemoryStore(), log), log),
		Tokens:         token.NewMiddlewareAdapter(tokens),
		Sessions:       sessions,
		AdminTokenHash: cfg.Auth.AdminTokenHash,
		Metrics:        metrics.New(),
		RateLimit:      limiter.LimitOperator,
		Health:         b.health,
		Logger:         log,
	})
	srv := httpserver.New(cfg.Addr, router)

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return err
	}
	if producer != nil {
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, 1, 1); err != nil {
			log.Warn("could not ensure access log topic", "error", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting sidesa",
			"addr", cfg.Addr,
			"environment", cfg.Environment,
			"postgres", b.db != nil,
			"redis", b.redis != nil,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if producer != nil {
		r := relay.New(b.outbox, producer, b.pgTx.RunInTx,
			relay.WithLogger(log),
			relay.WithInterval(cfg.Kafka.RelayInterval),
			relay.WithBatchSize(cfg.Kafka.RelayBatch),
		)
		g.Go(func() error {
			if err := r.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("access log relay: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}
