package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "trialreg/pkg/platform/strings"
)

// Server captures process level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	ShutdownTimeout time.Duration

	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Auth        AuthConfig
	Eligibility EligibilityConfig
	Closeout    CloseoutConfig
}

// DatabaseConfig selects the record store. An empty URL runs the in-memory stores.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	TxTimeout    time.Duration
	Migrate      bool
}

// RedisConfig configures the volunteer code sequence. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit relay. No brokers disables the relay.
type KafkaConfig struct {
	Brokers       []string
	AuditTopic    string
	RelayInterval time.Duration
	RelayBatch    int
}

type AuthConfig struct {
	JWTSigningKey  string
	JWTIssuer      string
	AccessTokenTTL time.Duration
	AdminUsername  string
	AdminPassword  string
}

// EligibilityConfig is the age band and washout interval of the status rules.
type EligibilityConfig struct {
	AgeMin      int
	AgeMax      int
	WashoutDays int
}

type CloseoutConfig struct {
	Enabled  bool
	Interval time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var errs []string
	env := envReader{errs: &errs}

	cfg := Server{
		Addr:            env.str("TRIALREG_ADDR", ":8080"),
		LogLevel:        env.str("LOG_LEVEL", "info"),
		ShutdownTimeout: env.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		Database: DatabaseConfig{
			URL:          env.str("DATABASE_URL", ""),
			MaxOpenConns: env.integer("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: env.integer("DATABASE_MAX_IDLE_CONNS", 5),
			TxTimeout:    env.duration("DATABASE_TX_TIMEOUT", 5*time.Second),
			Migrate:      env.boolean("DATABASE_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:          env.str("REDIS_URL", ""),
			PoolSize:     env.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: env.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  env.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  env.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: env.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:       env.list("KAFKA_BROKERS"),
			AuditTopic:    env.str("KAFKA_AUDIT_TOPIC", "trialreg.audit"),
			RelayInterval: env.duration("AUDIT_RELAY_INTERVAL", 2*time.Second),
			RelayBatch:    env.integer("AUDIT_RELAY_BATCH", 100),
		},
		Auth: AuthConfig{
			// Use a default for development - should be overridden in production
			JWTSigningKey:  env.str("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:      env.str("JWT_ISSUER", "trialreg"),
			AccessTokenTTL: env.duration("ACCESS_TOKEN_TTL", 8*time.Hour),
			AdminUsername:  env.str("ADMIN_USERNAME", ""),
			AdminPassword:  env.str("ADMIN_PASSWORD", ""),
		},
		Eligibility: EligibilityConfig{
			AgeMin:      env.integer("AGE_MIN", 18),
			AgeMax:      env.integer("AGE_MAX", 55),
			WashoutDays: env.integer("WASHOUT_DAYS", 90),
		},
		Closeout: CloseoutConfig{
			Enabled:  env.boolean("CLOSEOUT_ENABLED", false),
			Interval: env.duration("CLOSEOUT_INTERVAL", time.Hour),
		},
	}

	if len(errs) > 0 {
		return Server{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// envReader collects parse errors so every bad variable is reported at once.
type envReader struct {
	errs *[]string
}

func (e envReader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e envReader) integer(key string, def int) int {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Sprintf("%s: not an integer", key))
		return def
	}
	return n
}

func (e envReader) boolean(key string, def bool) bool {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Sprintf("%s: not a boolean", key))
		return def
	}
	return b
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Sprintf("%s: not a duration", key))
		return def
	}
	return d
}

func (e envReader) list(key string) []string {
	return platformstrings.SplitList(e.str(key, ""), ",")
}
