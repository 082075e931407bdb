package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"sentinel/pkg/errors"
)

type Config struct {
	App           AppConfig
	Monitor       MonitorConfig
	Oracle        OracleConfig
	Protocols     ProtocolsConfig
	Redis         RedisConfig
	Postgres      PostgresConfig
	Kafka         KafkaConfig
	Telegram      TelegramConfig
	Metrics       MetricsConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"sentinel"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

// MonitorConfig describes the wallet being watched and cycle cadence
type MonitorConfig struct {
	Wallet            string        `envconfig:"MONITOR_WALLET"`
	Protocols         []string      `envconfig:"MONITOR_PROTOCOLS" default:"aave"`
	AlertThresholdPct float64       `envconfig:"MONITOR_ALERT_THRESHOLD_PCT" default:"15"`
	CycleInterval     time.Duration `envconfig:"WORKER_MONITOR_INTERVAL" default:"1m"`
	DiscoveryEvery    int           `envconfig:"WORKER_DISCOVERY_EVERY" default:"10"` // re-discover every N cycles
}

type OracleConfig struct {
	Provider          string        `envconfig:"ORACLE_PROVIDER" default:"coingecko"`
	BaseURL           string        `envconfig:"ORACLE_BASE_URL"`
	APIKey            string        `envconfig:"ORACLE_API_KEY"`
	RequestTimeout    time.Duration `envconfig:"ORACLE_REQUEST_TIMEOUT" default:"10s"`
	RequestsPerMinute int           `envconfig:"ORACLE_REQUESTS_PER_MINUTE" default:"30"`
}

// ProtocolsConfig carries per-protocol data source endpoints.
// A missing endpoint disables that protocol adapter.
type ProtocolsConfig struct {
	AaveEndpoint     string        `envconfig:"PROTOCOL_AAVE_ENDPOINT"`
	CompoundEndpoint string        `envconfig:"PROTOCOL_COMPOUND_ENDPOINT"`
	CurveEndpoint    string        `envconfig:"PROTOCOL_CURVE_ENDPOINT"`
	FetchTimeout     time.Duration `envconfig:"PROTOCOL_FETCH_TIMEOUT" default:"15s"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Enabled reports whether a Redis host was configured
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"sentinel"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"10"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Enabled reports whether a Postgres host was configured
func (c PostgresConfig) Enabled() bool {
	return c.Host != ""
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
}

// Enabled reports whether Kafka brokers were configured
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type TelegramConfig struct {
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

// Enabled reports whether a bot token and chat were configured
func (c TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != 0
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9090"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
