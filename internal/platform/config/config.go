package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	// AdminToken guards the catalog administration routes.
	AdminToken  string
	LogLevel    string
	Postgres    PostgresConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	NATS        NATSConfig
	Catalog     CatalogConfig
	Marketplace MarketplaceConfig
	RateLimit   RateLimitConfig
}

// RateLimitConfig sets per-caller request limits per minute. Zero keeps the
// built-in default for that class.
type RateLimitConfig struct {
	Disabled       bool
	ReadPerMinute  int
	WritePerMinute int
}

// CatalogConfig seeds the store catalog. Owner holds it until ownership is
// transferred to the marketplace operator.
type CatalogConfig struct {
	Owner string
}

// PostgresConfig enables the postgres state store and ledger when DSN is set.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig enables shared rate limit windows when URL is set, and the redis
// credit ledger when postgres is not configured.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables the outbox relay when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// NATSConfig enables the NATS event sink when URL is set.
type NATSConfig struct {
	URL     string
	Subject string
}

// MarketplaceConfig holds the accounts and exchange settings of the drive.
type MarketplaceConfig struct {
	// OperatorAccount is recorded as the marketplace operator at creation.
	OperatorAccount string
	// MarketplaceAccount is the credit account that collects bid payments.
	MarketplaceAccount string
	// DepositDenomination is the number of base deposit units per whole
	// currency unit. One whole unit exchanges for 100 credits.
	DepositDenomination uint64
	SnowflakeNode       int64
}

const (
	defaultAddr                = ":8080"
	defaultDepositDenomination = 100
	defaultKafkaTopic          = "charitydrive.events"
	defaultNATSSubject         = "charitydrive.events"
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:          getenv("CHARITY_ADDR", defaultAddr),
		JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AdminToken:    os.Getenv("ADMIN_TOKEN"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		Postgres: PostgresConfig{
			DSN:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getenv("KAFKA_TOPIC", defaultKafkaTopic),
		},
		NATS: NATSConfig{
			URL:     os.Getenv("NATS_URL"),
			Subject: getenv("NATS_SUBJECT", defaultNATSSubject),
		},
		Catalog: CatalogConfig{
			Owner: os.Getenv("CATALOG_OWNER"),
		},
		Marketplace: MarketplaceConfig{
			OperatorAccount:     os.Getenv("OPERATOR_ACCOUNT"),
			MarketplaceAccount:  os.Getenv("MARKETPLACE_ACCOUNT"),
			DepositDenomination: defaultDepositDenomination,
		},
	}

	if raw := os.Getenv("DEPOSIT_DENOMINATION"); raw != "" {
		denom, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || denom == 0 {
			return Server{}, fmt.Errorf("DEPOSIT_DENOMINATION must be a positive integer, got %q", raw)
		}
		cfg.Marketplace.DepositDenomination = denom
	}

	cfg.RateLimit.Disabled = os.Getenv("RATE_LIMIT_DISABLED") == "true"
	for key, dst := range map[string]*int{
		"RATE_LIMIT_READ_PER_MINUTE":  &cfg.RateLimit.ReadPerMinute,
		"RATE_LIMIT_WRITE_PER_MINUTE": &cfg.RateLimit.WritePerMinute,
	} {
		raw := os.Getenv(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Server{}, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
		}
		*dst = n
	}

	if raw := os.Getenv("SNOWFLAKE_NODE"); raw != "" {
		node, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || node < 0 || node > 1023 {
			return Server{}, fmt.Errorf("SNOWFLAKE_NODE must be between 0 and 1023, got %q", raw)
		}
		cfg.Marketplace.SnowflakeNode = node
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
