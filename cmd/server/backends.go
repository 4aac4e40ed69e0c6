package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"sidesa/internal/disclosure/ports"
	"sidesa/internal/disclosure/service"
	"sidesa/internal/disclosure/store/idempotency"
	disclosureMemory "sidesa/internal/disclosure/store/memory"
	disclosurePostgres "sidesa/internal/disclosure/store/postgres"
	"sidesa/internal/platform/config"
	"sidesa/internal/platform/postgres"
	"sidesa/internal/platform/redis"
	ratelimitmw "sidesa/internal/ratelimit/middleware"
	ratelimitStore "sidesa/internal/ratelimit/store"
	"sidesa/internal/registry/importer"
	registryService "sidesa/internal/registry/service"
	registryStore "sidesa/internal/registry/store"
	sessionService "sidesa/internal/session/service"
	sessionStore "sidesa/internal/session/store"
	httptransport "sidesa/internal/transport/http"
	audit "sidesa/pkg/platform/audit"
	auditMemory "sidesa/pkg/platform/audit/store/memory"
	auditPostgres "sidesa/pkg/platform/audit/store/postgres"
)

type registryBackend interface {
	registryService.PopulationStore
	registryService.ReportStore
	importer.Sink
}

// backends holds the stores selected by configuration. Postgres replaces the
// memory stores when DATABASE_URL is set; redis backs sessions and
// idempotency keys when REDIS_URL is set.
type backends struct {
	db    *sql.DB
	redis *redis.Client

	registry    registryBackend
	disclosures ports.DisclosureStore
	audit       audit.Store
	idempotency ports.IdempotencyStore
	sessions    sessionService.Store
	rateLimits  ratelimitmw.Store
	tx          ports.TxRunner

	// Set only with postgres.
	outbox *auditPostgres.Store
	pgTx   *postgres.TxRunner

	health map[string]httptransport.HealthFunc
}

func openBackends(ctx context.Context, cfg config.Server, log *slog.Logger) (*backends, error) {
	b := &backends{health: map[string]httptransport.HealthFunc{}}

	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		b.db = db
		b.registry = registryStore.NewPostgresStore(db)
		b.disclosures = disclosurePostgres.New(db)
		b.outbox = auditPostgres.New(db)
		b.audit = b.outbox
		b.pgTx = postgres.NewTxRunner(db, cfg.Disclosure.StoreTimeout)
		b.tx = b.pgTx
		b.health["postgres"] = db.PingContext
	} else {
		log.Warn("DATABASE_URL not set; using in-memory stores")
		b.registry = registryStore.NewInMemoryStore()
		b.disclosures = disclosureMemory.NewInMemoryStore()
		b.audit = auditMemory.NewInMemoryStore()
		b.tx = service.NewLockedTx(cfg.Disclosure.StoreTimeout)
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		b.Close()
		return nil, err
	}
	if client != nil {
		b.redis = client
		b.idempotency = idempotency.NewRedisStore(client.Client)
		b.sessions = sessionStore.NewRedisStore(client.Client, cfg.Session.IdleTimeout)
		b.rateLimits = ratelimitStore.NewRedisStore(client.Client)
		b.health["redis"] = client.Health
	} else {
		b.idempotency = idempotency.NewInMemoryStore()
		b.rateLimits = ratelimitStore.NewInMemoryStore()
	}

	return b, nil
}

func (b *backends) Close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.db != nil {
		_ = b.db.Close()
	}
}

func importFixture(ctx context.Context, path string, sink importer.Sink, log *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open registry fixture: %w", err)
	}
	defer f.Close()

	fx, err := importer.Import(ctx, f, sink)
	if err != nil {
		return err
	}
	log.Info("registry fixture loaded",
		"path", path,
		"residents", len(fx.Residents),
		"reports", len(fx.Reports),
	)
	return nil
}
