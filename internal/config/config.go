package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root service configuration, loaded from YAML with
// environment-variable overrides.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" env:"AUTH_SERVER_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

type DatabaseConfig struct {
	Host           string        `yaml:"host" env:"AUTH_DB_HOST" env-default:"localhost"`
	Port           int           `yaml:"port" env:"AUTH_DB_PORT" env-default:"5432"`
	User           string        `yaml:"user" env:"AUTH_DB_USER" env-default:"auth"`
	Password       string        `yaml:"password" env:"AUTH_DB_PASSWORD"`
	DBName         string        `yaml:"dbname" env:"AUTH_DB_NAME" env-default:"auth"`
	SSLMode        string        `yaml:"sslmode" env:"AUTH_DB_SSLMODE" env-default:"disable"`
	MaxConns       int           `yaml:"max_conns" env-default:"10"`
	MinConns       int           `yaml:"min_conns" env-default:"2"`
	ConnMaxLife    time.Duration `yaml:"conn_max_life" env-default:"1h"`
	AutoMigrate    bool          `yaml:"auto_migrate" env:"AUTH_DB_AUTO_MIGRATE" env-default:"true"`
	MigrationsPath string        `yaml:"migrations_path" env-default:"migrations"`
}

// DSN builds the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

type RedisConfig struct {
	Host     string `yaml:"host" env:"AUTH_REDIS_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"AUTH_REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"AUTH_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"AUTH_REDIS_DB" env-default:"0"`
}

// Addr returns the host:port address for the Redis client.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled            bool     `yaml:"enabled" env:"AUTH_KAFKA_ENABLED" env-default:"false"`
	Brokers            []string `yaml:"brokers" env:"AUTH_KAFKA_BROKERS" env-separator:","`
	SecurityEventTopic string   `yaml:"security_event_topic" env-default:"auth.security-events"`
}

// SecurityConfig carries the tunable constants of the auth core. The
// defaults preserve the platform's historical behavior; change them only
// with a deliberate review of the security posture.
type SecurityConfig struct {
	SessionTTL           time.Duration `yaml:"session_ttl" env-default:"168h"` // 7 days
	LockoutThreshold     int           `yaml:"lockout_threshold" env-default:"5"`
	VerificationTokenTTL time.Duration `yaml:"verification_token_ttl" env-default:"60m"`
	TwoFactorIssuer      string        `yaml:"two_factor_issuer" env-default:"arena-gg"`
	RateLimitWindow      time.Duration `yaml:"rate_limit_window" env-default:"1m"`
	RateLimitMaxRequests int           `yaml:"rate_limit_max_requests" env-default:"30"`
	CleanupInterval      time.Duration `yaml:"cleanup_interval" env-default:"1h"`
	InternalAPIToken     string        `yaml:"internal_api_token" env:"AUTH_INTERNAL_API_TOKEN"`
	AllowedOrigins       []string      `yaml:"allowed_origins" env-separator:","`
}

type LoggingConfig struct {
	Level       string `yaml:"level" env:"AUTH_LOG_LEVEL" env-default:"info"`
	Environment string `yaml:"environment" env:"APP_ENV" env-default:"development"`
}

// LoadConfig reads the configuration file named by CONFIG_PATH (default
// config.yaml), after sourcing .env if present. Environment variables
// override file values.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}

	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
	}
	return &cfg, nil
}
