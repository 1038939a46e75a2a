package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Queue    QueueConfig
	Feed     FeedConfig
	Secrets  SecretsConfig
	Operator OperatorConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
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

// RedisConfig holds Redis connection settings for webhook deduplication
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// QueueConfig holds job queue and worker pool configuration
type QueueConfig struct {
	WorkerCount    int
	PollInterval   time.Duration
	HandlerTimeout time.Duration
	MaxAttempts    int
	DedupTTL       time.Duration
	DedupEnabled   bool
}

// FeedConfig holds remote inventory feed settings
type FeedConfig struct {
	BaseURL  string
	APIKey   string
	PageSize int
	Timeout  time.Duration
}

// SecretsConfig holds the credential cipher key
type SecretsConfig struct {
	// CipherKeyHex is the hex-encoded 32-byte AES key protecting credential
	// secrets at rest
	CipherKeyHex string
}

// OperatorConfig holds settings for the operator (dead-letter) surface
type OperatorConfig struct {
	JWTSecret     string
	JWTExpiration time.Duration
	JWTIssuer     string
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with STOREFRONT_ prefix (e.g. STOREFRONT_DATABASE_PASSWORD)
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
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("STOREFRONT")
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
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Queue: QueueConfig{
			WorkerCount:    v.GetInt("queue.worker_count"),
			PollInterval:   v.GetDuration("queue.poll_interval"),
			HandlerTimeout: v.GetDuration("queue.handler_timeout"),
			MaxAttempts:    v.GetInt("queue.max_attempts"),
			DedupTTL:       v.GetDuration("queue.dedup_ttl"),
			DedupEnabled:   v.GetBool("queue.dedup_enabled"),
		},
		Feed: FeedConfig{
			BaseURL:  v.GetString("feed.base_url"),
			APIKey:   v.GetString("feed.api_key"),
			PageSize: v.GetInt("feed.page_size"),
			Timeout:  v.GetDuration("feed.timeout"),
		},
		Secrets: SecretsConfig{
			CipherKeyHex: v.GetString("secrets.cipher_key"),
		},
		Operator: OperatorConfig{
			JWTSecret:     v.GetString("operator.jwt_secret"),
			JWTExpiration: v.GetDuration("operator.jwt_expiration"),
			JWTIssuer:     v.GetString("operator.jwt_issuer"),
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
		cfg.App.Name = "storefront-gateway"
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
		cfg.Database.DBName = "storefront"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
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
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.Queue.WorkerCount == 0 {
		cfg.Queue.WorkerCount = 4
	}
	if cfg.Queue.PollInterval == 0 {
		cfg.Queue.PollInterval = 2 * time.Second
	}
	if cfg.Queue.HandlerTimeout == 0 {
		cfg.Queue.HandlerTimeout = 30 * time.Second
	}
	if cfg.Queue.MaxAttempts == 0 {
		cfg.Queue.MaxAttempts = 5
	}
	if cfg.Queue.DedupTTL == 0 {
		cfg.Queue.DedupTTL = 24 * time.Hour
	}
	if cfg.Feed.PageSize == 0 {
		cfg.Feed.PageSize = 100
	}
	if cfg.Feed.Timeout == 0 {
		cfg.Feed.Timeout = 10 * time.Second
	}
	if cfg.Operator.JWTExpiration == 0 {
		cfg.Operator.JWTExpiration = 15 * time.Minute
	}
	if cfg.Operator.JWTIssuer == "" {
		cfg.Operator.JWTIssuer = "storefront-gateway"
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

	if c.Secrets.CipherKeyHex != "" {
		key, err := hex.DecodeString(c.Secrets.CipherKeyHex)
		if err != nil {
			return fmt.Errorf("secrets.cipher_key must be hex-encoded: %w", err)
		}
		if len(key) != 32 {
			return fmt.Errorf("secrets.cipher_key must decode to 32 bytes, got %d", len(key))
		}
	}

	if c.App.Env == "production" {
		if c.Secrets.CipherKeyHex == "" {
			return fmt.Errorf("secrets.cipher_key is required in production")
		}
		if c.Operator.JWTSecret == "" {
			return fmt.Errorf("operator.jwt_secret is required in production")
		}
		if len(c.Operator.JWTSecret) < 32 {
			return fmt.Errorf("operator.jwt_secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Feed.BaseURL == "" {
			return fmt.Errorf("feed.base_url is required in production")
		}
	}

	return nil
}

// CipherKey returns the decoded cipher key bytes
func (c *SecretsConfig) CipherKey() ([]byte, error) {
	return hex.DecodeString(c.CipherKeyHex)
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
