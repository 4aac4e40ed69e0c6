package cli

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sidesa/internal/auth/token"
	"sidesa/internal/disclosure/adapters"
	disclosureHandler "sidesa/internal/disclosure/handler"
	disclosureService "sidesa/internal/disclosure/service"
	"sidesa/internal/disclosure/store/idempotency"
	disclosurePostgres "sidesa/internal/disclosure/store/postgres"
	"sidesa/internal/platform/config"
	"sidesa/internal/platform/postgres"
	"sidesa/internal/platform/redis"
	"sidesa/internal/registry/importer"
	registryService "sidesa/internal/registry/service"
	registryStore "sidesa/internal/registry/store"
	sessionService "sidesa/internal/session/service"
	sessionStore "sidesa/internal/session/store"
	"sidesa/pkg/platform/audit/recorder"
	auditPostgres "sidesa/pkg/platform/audit/store/postgres"
)

// Backend is what the commands operate on.
type Backend struct {
	Disclosures disclosureHandler.Service
	Registry    importer.Sink
	Tokens      *token.JWTService
	TokenTTL    time.Duration
	// Sessions is nil when no session store is configured; issued tokens
	// then carry no session.
	Sessions *sessionService.Service
	Close    func()
}

// Opener connects a Backend. It runs once per command invocation.
type Opener func(ctx context.Context) (*Backend, error)

// PostgresOpener opens the same stores the server uses. The CLI is only
// useful against shared state, so DATABASE_URL is required.
func PostgresOpener(cfg config.Server, log *slog.Logger) Opener {
	return func(ctx context.Context) (*Backend, error) {
		if cfg.Database.URL == "" {
			return nil, errors.New("DATABASE_URL is required")
		}
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}

		registry := registryStore.NewPostgresStore(db)
		opts := []disclosureService.Option{
			disclosureService.WithLogger(log),
			disclosureService.WithStoreTimeout(cfg.Disclosure.StoreTimeout),
		}

		b := &Backend{
			Registry: registry,
			Tokens:   token.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer),
			TokenTTL: cfg.Auth.TokenTTL,
		}

		rdb, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if rdb != nil {
			opts = append(opts, disclosureService.WithIdempotency(idempotency.NewRedisStore(rdb.Client), cfg.Disclosure.IdempotencyTTL))
			b.Sessions = sessionService.New(
				sessionStore.NewRedisStore(rdb.Client, cfg.Session.IdleTimeout),
				sessionService.WithIdleTimeout(cfg.Session.IdleTimeout),
				sessionService.WithLogger(log),
			)
		}

		b.Disclosures = disclosureService.New(
			adapters.NewRegistryAdapter(registryService.New(registry, registry,
				registryService.WithTimeout(cfg.Disclosure.RegistryTimeout),
				registryService.WithLogger(log),
			)),
			disclosurePostgres.New(db),
			recorder.New(auditPostgres.New(db), recorder.WithLogger(log)),
			postgres.NewTxRunner(db, cfg.Disclosure.StoreTimeout),
			opts...,
		)
		b.Close = func() {
			if rdb != nil {
				_ = rdb.Close()
			}
			_ = db.Close()
		}
		return b, nil
	}
}
