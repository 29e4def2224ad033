package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// HTTP server
	Server ServerConfig `mapstructure:"server"`

	// PostgreSQL
	Postgres PostgresConfig `mapstructure:"postgres"`

	// Redis
	Redis RedisConfig `mapstructure:"redis"`

	// NATS
	NATS NATSConfig `mapstructure:"nats"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`

	// QR image synthesis + storage
	QR QRConfig `mapstructure:"qr"`

	// Anonymous sessions
	Session SessionConfig `mapstructure:"session"`

	// Click recording + retention
	Clicks ClicksConfig `mapstructure:"clicks"`

	// Offline IP geolocation
	GeoIP GeoIPConfig `mapstructure:"geoip"`
}

type ServerConfig struct {
	Addr    string `mapstructure:"addr"`
	BaseURL string `mapstructure:"base_url"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	Database          string `mapstructure:"database"`
	Port              int    `mapstructure:"port"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   string `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   string `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod string `mapstructure:"health_check_period"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	MonitorPort int    `mapstructure:"monitor_port"`
}

type PrometheusConfig struct {
	Port           int    `mapstructure:"port"`
	Retention      string `mapstructure:"retention"`
	ScrapeInterval string `mapstructure:"scrape_interval"`
	Target         string `mapstructure:"target"`
}

type QRConfig struct {
	// StorageDir is where rendered QR images are kept on disk.
	StorageDir string `mapstructure:"storage_dir"`
	// DownloadSecret signs download tokens for stored images.
	DownloadSecret string `mapstructure:"download_secret"`
}

type SessionConfig struct {
	// DurationHours is the default lifetime of an anonymous session.
	DurationHours int `mapstructure:"duration_hours"`
	// SweepInterval controls how often expired sessions are hard-deleted.
	SweepInterval string `mapstructure:"sweep_interval"`
}

type ClicksConfig struct {
	// Pipeline selects how click events are persisted: "sync" stores the
	// event in the same transaction as the counter update, "stream"
	// publishes to JetStream and lets the consumer store it.
	Pipeline string `mapstructure:"pipeline"`
	// RetentionDays bounds how long click events are kept. Zero disables
	// the retention job.
	RetentionDays int `mapstructure:"retention_days"`
	// PurgeInterval controls how often the retention job runs.
	PurgeInterval string `mapstructure:"purge_interval"`
	// BestEffort allows a redirect to succeed even when the click event
	// could not be recorded durably. Off by default.
	BestEffort bool `mapstructure:"best_effort"`
}

type GeoIPConfig struct {
	// DatabasePath points at a MaxMind City mmdb file. Empty disables
	// geo enrichment; clicks are still recorded without country/city.
	DatabasePath string `mapstructure:"database_path"`
}

const (
	PipelineSync   = "sync"
	PipelineStream = "stream"
)

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Search for config/config.yaml (plus root for overrides).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Allow environment variables to override YAML entries.
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Preserve legacy env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Clicks.Pipeline != PipelineSync && cfg.Clicks.Pipeline != PipelineStream {
		return nil, fmt.Errorf("clicks.pipeline must be %q or %q, got %q",
			PipelineSync, PipelineStream, cfg.Clicks.Pipeline)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("qr.storage_dir", "./data/qrcodes")
	v.SetDefault("session.duration_hours", 24)
	v.SetDefault("session.sweep_interval", "10m")
	v.SetDefault("clicks.pipeline", PipelineSync)
	v.SetDefault("clicks.retention_days", 0)
	v.SetDefault("clicks.purge_interval", "24h")
	v.SetDefault("clicks.best_effort", false)
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.addr", "SERVER_ADDR")
	v.BindEnv("server.base_url", "BASE_URL")

	// PostgreSQL
	v.BindEnv("postgres.host", "PG_HOST")
	v.BindEnv("postgres.user", "PG_USER")
	v.BindEnv("postgres.password", "PG_PASSWORD")
	v.BindEnv("postgres.database", "PG_DB")
	v.BindEnv("postgres.port", "PG_PORT")
	v.BindEnv("postgres.sslmode", "PG_SSLMODE")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// NATS
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")
	v.BindEnv("nats.monitor_port", "NATS_MONITOR_PORT")

	// Prometheus
	v.BindEnv("prometheus.port", "PROM_PORT")
	v.BindEnv("prometheus.retention", "PROM_RETENTION")
	v.BindEnv("prometheus.scrape_interval", "PROM_SCRAPE_INTERVAL")
	v.BindEnv("prometheus.target", "PROM_TARGET")

	// QR storage
	v.BindEnv("qr.storage_dir", "QR_STORAGE_DIR")
	v.BindEnv("qr.download_secret", "QR_DOWNLOAD_SECRET")

	// Sessions
	v.BindEnv("session.duration_hours", "SESSION_DURATION_HOURS")
	v.BindEnv("session.sweep_interval", "SESSION_SWEEP_INTERVAL")

	// Clicks
	v.BindEnv("clicks.pipeline", "CLICKS_PIPELINE")
	v.BindEnv("clicks.retention_days", "CLICKS_RETENTION_DAYS")
	v.BindEnv("clicks.purge_interval", "CLICKS_PURGE_INTERVAL")
	v.BindEnv("clicks.best_effort", "CLICKS_BEST_EFFORT")

	// GeoIP
	v.BindEnv("geoip.database_path", "GEOIP_DB_PATH")
}
