package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	Identity  IdentityConfig
	Exchange  ExchangeConfig
	Sync      SyncConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// IdentityConfig holds settings for the upstream identity server
// that issues bearer tokens for the exchange APIs.
type IdentityConfig struct {
	Authority    string // base URL of the identity server (discovery document host)
	ClientID     string
	ClientSecret string
	Scope        string
	Username     string
	Password     string
	Timeout      time.Duration
	RefreshSkew  time.Duration // renew this long before actual expiry
}

// ExchangeConfig holds settings for the upstream exchange REST APIs
type ExchangeConfig struct {
	BaseURL             string // reference and operational endpoints
	NotificationBaseURL string // notification endpoints (separate host, no bearer)
	PageSize            int
	Language            string
	PageDelay           time.Duration // wait between paged GETs on reference pulls
	Timeout             time.Duration
}

// SyncConfig holds settings for the spot sync scheduler
type SyncConfig struct {
	Enabled       bool
	CycleInterval time.Duration
	// Randomized wait before each per-day operational fetch. The upstream
	// operator has not confirmed the real rate limit; these defaults match
	// the behaviour observed to be tolerated.
	DayFetchDelayMin time.Duration
	DayFetchDelayMax time.Duration
	// Lookback windows per operational entity
	OfferLookback        time.Duration
	TradeReportLookback  time.Duration
	NotificationLookback time.Duration
	// Number of completed cycles kept in memory for the status endpoint
	HistorySize int
}

// TelemetryConfig holds OpenTelemetry metrics configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ServiceName       string
	Insecure          bool
	ExportInterval    time.Duration
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with IME_ prefix (e.g. IME_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults and env vars apply
	}

	v.SetEnvPrefix("IME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Identity: IdentityConfig{
			Authority:    v.GetString("identity.authority"),
			ClientID:     v.GetString("identity.client_id"),
			ClientSecret: v.GetString("identity.client_secret"),
			Scope:        v.GetString("identity.scope"),
			Username:     v.GetString("identity.username"),
			Password:     v.GetString("identity.password"),
			Timeout:      v.GetDuration("identity.timeout"),
			RefreshSkew:  v.GetDuration("identity.refresh_skew"),
		},
		Exchange: ExchangeConfig{
			BaseURL:             v.GetString("exchange.base_url"),
			NotificationBaseURL: v.GetString("exchange.notification_base_url"),
			PageSize:            v.GetInt("exchange.page_size"),
			Language:            v.GetString("exchange.language"),
			PageDelay:           v.GetDuration("exchange.page_delay"),
			Timeout:             v.GetDuration("exchange.timeout"),
		},
		Sync: SyncConfig{
			Enabled:              v.GetBool("sync.enabled"),
			CycleInterval:        v.GetDuration("sync.cycle_interval"),
			DayFetchDelayMin:     v.GetDuration("sync.day_fetch_delay_min"),
			DayFetchDelayMax:     v.GetDuration("sync.day_fetch_delay_max"),
			OfferLookback:        v.GetDuration("sync.offer_lookback"),
			TradeReportLookback:  v.GetDuration("sync.trade_report_lookback"),
			NotificationLookback: v.GetDuration("sync.notification_lookback"),
			HistorySize:          v.GetInt("sync.history_size"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			ExportInterval:    v.GetDuration("telemetry.export_interval"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "ime-spot-sync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "ime_spot"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Identity.Scope == "" {
		cfg.Identity.Scope = "spot-api"
	}
	if cfg.Identity.Timeout == 0 {
		cfg.Identity.Timeout = 30 * time.Second
	}
	if cfg.Identity.RefreshSkew == 0 {
		cfg.Identity.RefreshSkew = 60 * time.Second
	}
	if cfg.Exchange.PageSize == 0 {
		cfg.Exchange.PageSize = 1000
	}
	if cfg.Exchange.Language == "" {
		cfg.Exchange.Language = "fa"
	}
	if cfg.Exchange.PageDelay == 0 {
		cfg.Exchange.PageDelay = 3 * time.Second
	}
	if cfg.Exchange.Timeout == 0 {
		cfg.Exchange.Timeout = 2 * time.Minute
	}
	if cfg.Sync.CycleInterval == 0 {
		cfg.Sync.CycleInterval = time.Hour
	}
	if cfg.Sync.DayFetchDelayMin == 0 {
		cfg.Sync.DayFetchDelayMin = 3 * time.Minute
	}
	if cfg.Sync.DayFetchDelayMax == 0 {
		cfg.Sync.DayFetchDelayMax = 5 * time.Minute
	}
	if cfg.Sync.OfferLookback == 0 {
		cfg.Sync.OfferLookback = 19 * 24 * time.Hour
	}
	if cfg.Sync.TradeReportLookback == 0 {
		cfg.Sync.TradeReportLookback = 5 * 24 * time.Hour
	}
	if cfg.Sync.NotificationLookback == 0 {
		cfg.Sync.NotificationLookback = 365 * 24 * time.Hour
	}
	if cfg.Sync.HistorySize == 0 {
		cfg.Sync.HistorySize = 50
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "ime-spot-sync"
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 60 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Sync.DayFetchDelayMax < c.Sync.DayFetchDelayMin {
		return fmt.Errorf("sync.day_fetch_delay_max (%s) cannot be less than sync.day_fetch_delay_min (%s)",
			c.Sync.DayFetchDelayMax, c.Sync.DayFetchDelayMin)
	}
	if c.Sync.HistorySize < 0 {
		return fmt.Errorf("sync.history_size cannot be negative")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Sync.Enabled {
			if c.Identity.Authority == "" {
				return fmt.Errorf("identity.authority is required when sync is enabled in production")
			}
			if c.Identity.ClientSecret == "" {
				return fmt.Errorf("identity.client_secret is required when sync is enabled in production")
			}
			if c.Exchange.BaseURL == "" {
				return fmt.Errorf("exchange.base_url is required when sync is enabled in production")
			}
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the host:port address for the Redis server
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
