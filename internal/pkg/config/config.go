package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	JWTTTL    time.Duration `env:"JWT_TTL,   default=30m"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	Postgres  PostgresConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	LDAP      LDAPConfig
	SeedAdmin SeedAdminConfig
	LoginRate LoginRateConfig
	Events    EventsConfig
}

type PostgresConfig struct {
	DSN             string        `env:"POSTGRES_DSN, required"`
	MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS,    default=20"`
	MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS,    default=10"`
	ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME, default=1h"`
}

type MongoConfig struct {
	URI            string        `env:"MONGO_URI,             default=mongodb://localhost:27017"`
	Database       string        `env:"MONGO_DB,              default=coupons"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr           string        `env:"REDIS_ADDR,            default=localhost:6379"`
	Password       string        `env:"REDIS_PASSWORD"`
	DB             int           `env:"REDIS_DB,              default=0"`
	IdempotencyTTL time.Duration `env:"REDIS_IDEMPOTENCY_TTL, default=24h"`
}

// KafkaConfig enables the event stream when Brokers is non-empty.
type KafkaConfig struct {
	Brokers  []string `env:"KAFKA_BROKERS"`
	Topic    string   `env:"KAFKA_TOPIC,     default=coupon-events"`
	ClientID string   `env:"KAFKA_CLIENT_ID, default=coupon-service"`
}

// LDAPConfig enables directory login when URL is set.
type LDAPConfig struct {
	URL         string        `env:"LDAP_URL"`
	BaseDN      string        `env:"LDAP_BASE_DN,      default=dc=example,dc=com"`
	EmailDomain string        `env:"LDAP_EMAIL_DOMAIN, default=example.com"`
	Timeout     time.Duration `env:"LDAP_TIMEOUT,      default=5s"`
}

// SeedAdminConfig holds the bootstrap administrator created on an empty store.
type SeedAdminConfig struct {
	Username string `env:"SEED_ADMIN_USERNAME, default=admin"`
	Email    string `env:"SEED_ADMIN_EMAIL,    default=admin@example.com"`
	Password string `env:"SEED_ADMIN_PASSWORD"`
}

type LoginRateConfig struct {
	Attempts int           `env:"LOGIN_RATE_ATTEMPTS, default=5"`
	Window   time.Duration `env:"LOGIN_RATE_WINDOW,   default=15m"`
}

// EventsConfig sizes the audit dispatcher. QueueSize is per worker and
// should hold a full bulk assignment for one coupon.
type EventsConfig struct {
	Workers        int           `env:"EVENT_WORKERS,         default=4"`
	QueueSize      int           `env:"EVENT_QUEUE_SIZE,      default=1024"`
	EnqueueTimeout time.Duration `env:"EVENT_ENQUEUE_TIMEOUT, default=2s"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from an arbitrary lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether pretty logging and other local defaults apply.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
