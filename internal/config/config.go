package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/storagerental/users-service/pkg/config"
)

// Config holds all configuration for the users service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"USERS_HTTP_PORT" envDefault:"8000"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storagerental"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storagerental_secret"`
	PostgresDB   string `env:"USERS_DB_NAME" envDefault:"users_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT
	JWTSecret       string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTAccessExpiry time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"60m"`

	// Google OAuth
	GoogleClientID string `env:"GOOGLE_CLIENT_ID" envDefault:""`

	// Rental service proxy
	RentalServiceURL string        `env:"RENTAL_SERVICE_URL" envDefault:"http://localhost:8001"`
	RentalTimeout    time.Duration `env:"RENTAL_SERVICE_TIMEOUT" envDefault:"5s"`

	// Verification job pool
	JobWorkers       int           `env:"JOB_WORKERS" envDefault:"4"`
	JobQueueSize     int           `env:"JOB_QUEUE_SIZE" envDefault:"64"`
	VerifyEmailDelay time.Duration `env:"VERIFY_EMAIL_DELAY" envDefault:"3s"`

	// Tracing
	OTLPEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	TracingSampler float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load users config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}
	if cfg.JWTAccessExpiry <= 0 {
		return nil, fmt.Errorf("invalid JWT access expiry: %s", cfg.JWTAccessExpiry)
	}
	if cfg.RentalServiceURL == "" {
		return nil, fmt.Errorf("RENTAL_SERVICE_URL must not be empty")
	}

	// In non-development environments, require an explicitly set, strong JWT secret.
	if cfg.Environment != "development" {
		if cfg.JWTSecret == "change-this-to-a-secure-secret" {
			return nil, fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", cfg.Environment)
		}
		if len(cfg.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(cfg.JWTSecret))
		}
	}

	return cfg, nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
