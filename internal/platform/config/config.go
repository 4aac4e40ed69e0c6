package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "sidesa/pkg/platform/strings"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string

	// RegistryFixture is an optional YAML file loaded into the registry at startup.
	RegistryFixture string

	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Auth       AuthConfig
	Session    SessionConfig
	Disclosure DisclosureConfig
	RateLimit  RateLimitConfig
}

// DatabaseConfig selects the postgres backend. An empty URL runs on memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig selects the redis session and idempotency backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the access log outbox relay.
type KafkaConfig struct {
	Brokers       []string
	AuditTopic    string
	RelayInterval time.Duration
	RelayBatch    int
}

// AuthConfig holds operator token settings.
type AuthConfig struct {
	JWTSigningKey  string
	JWTIssuer      string
	TokenTTL       time.Duration
	AdminTokenHash string
}

// SessionConfig controls operator session expiry.
type SessionConfig struct {
	IdleTimeout time.Duration
}

// RateLimitConfig throttles authenticated operator requests. A zero limit
// disables it.
type RateLimitConfig struct {
	OperatorLimit  int
	OperatorWindow time.Duration
}

// DisclosureConfig bounds calls made by the disclosure engine.
type DisclosureConfig struct {
	RegistryTimeout time.Duration
	StoreTimeout    time.Duration
	IdempotencyTTL  time.Duration
}

const devSigningKey = "dev-secret-key-change-in-production"

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:        getEnv("SIDESA_ADDR", ":8080"),
		Environment: getEnv("SIDESA_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		RegistryFixture: os.Getenv("REGISTRY_FIXTURE"),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:       platformstrings.SplitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic:    getEnv("KAFKA_AUDIT_TOPIC", "sidesa.access-logs"),
			RelayInterval: getDuration("KAFKA_RELAY_INTERVAL", time.Second),
			RelayBatch:    getInt("KAFKA_RELAY_BATCH", 100),
		},
		Auth: AuthConfig{
			JWTSigningKey:  getEnv("JWT_SIGNING_KEY", devSigningKey),
			JWTIssuer:      getEnv("JWT_ISSUER", "sidesa"),
			TokenTTL:       getDuration("JWT_TOKEN_TTL", 8*time.Hour),
			AdminTokenHash: os.Getenv("ADMIN_TOKEN_HASH"),
		},
		Session: SessionConfig{
			IdleTimeout: getDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		},
		Disclosure: DisclosureConfig{
			RegistryTimeout: getDuration("DISCLOSURE_REGISTRY_TIMEOUT", 3*time.Second),
			StoreTimeout:    getDuration("DISCLOSURE_STORE_TIMEOUT", 5*time.Second),
			IdempotencyTTL:  getDuration("DISCLOSURE_IDEMPOTENCY_TTL", 24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			OperatorLimit:  getInt("RATE_LIMIT_OPERATOR", 60),
			OperatorWindow: getDuration("RATE_LIMIT_OPERATOR_WINDOW", time.Minute),
		},
	}
}

// IsProduction reports whether the process runs with production safeguards.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// Validate rejects configurations that would start an unsafe or broken service.
func (s Server) Validate() error {
	var errs []error
	if s.Addr == "" {
		errs = append(errs, errors.New("SIDESA_ADDR is required"))
	}
	if s.IsProduction() && s.Auth.JWTSigningKey == devSigningKey {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be set in production"))
	}
	if len(s.Auth.JWTSigningKey) < 16 {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be at least 16 bytes"))
	}
	if s.Session.IdleTimeout <= 0 {
		errs = append(errs, errors.New("SESSION_IDLE_TIMEOUT must be positive"))
	}
	if s.Disclosure.RegistryTimeout <= 0 || s.Disclosure.StoreTimeout <= 0 {
		errs = append(errs, errors.New("disclosure timeouts must be positive"))
	}
	if len(s.Kafka.Brokers) > 0 && s.Database.URL == "" {
		errs = append(errs, errors.New("KAFKA_BROKERS requires DATABASE_URL for the outbox"))
	}
	if s.RateLimit.OperatorLimit < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_OPERATOR cannot be negative"))
	}
	if s.Kafka.RelayBatch <= 0 {
		errs = append(errs, fmt.Errorf("KAFKA_RELAY_BATCH must be positive, got %d", s.Kafka.RelayBatch))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
