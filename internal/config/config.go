package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	ERP      ERPConfig      `mapstructure:"erp"`
	Zalo     ZaloConfig     `mapstructure:"zalo"`
	Intake   IntakeConfig   `mapstructure:"intake"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MiddlewareTimeout time.Duration `mapstructure:"middleware_timeout"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
}

// StorageConfig selects the backends for sessions and the message log
type StorageConfig struct {
	// Sessions is one of postgres, sqlite, redis
	Sessions string `mapstructure:"sessions"`
	// Records holds messages and registrations: postgres or sqlite
	Records string `mapstructure:"records"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// ERPConfig points at the ERP's MySQL database
type ERPConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	Database    string `mapstructure:"database"`
	OrderPrefix string `mapstructure:"order_prefix"`
	ListLimit   int    `mapstructure:"list_limit"`
}

func (c ERPConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

type ZaloConfig struct {
	APIBase       string        `mapstructure:"api_base"`
	OAuthBase     string        `mapstructure:"oauth_base"`
	AppID         string        `mapstructure:"app_id"`
	SecretKey     string        `mapstructure:"secret_key"`
	AccessToken   string        `mapstructure:"access_token"`
	RefreshToken  string        `mapstructure:"refresh_token"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	HistoryCount  int           `mapstructure:"history_count"`
}

type IntakeConfig struct {
	Brand            string              `mapstructure:"brand"`
	SupportPhone     string              `mapstructure:"support_phone"`
	HistorySource    string              `mapstructure:"history_source"`
	HistoryLimit     int                 `mapstructure:"history_limit"`
	HistoryTimeout   time.Duration       `mapstructure:"history_timeout"`
	OrderTimeout     time.Duration       `mapstructure:"order_timeout"`
	SendTimeout      time.Duration       `mapstructure:"send_timeout"`
	MaxSaveRetries   int                 `mapstructure:"max_save_retries"`
	LockTTL          time.Duration       `mapstructure:"lock_ttl"`
	DistributedLock  bool                `mapstructure:"distributed_lock"`
	AssistantEnabled bool                `mapstructure:"assistant_enabled"`
	Phrases          map[string][]string `mapstructure:"phrases"`
}

type LLMConfig struct {
	DefaultProvider string        `mapstructure:"default_provider"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Gemini          GeminiConfig  `mapstructure:"gemini"`
	Ollama          OllamaConfig  `mapstructure:"ollama"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OllamaConfig struct {
	Host         string `mapstructure:"host"`
	DefaultModel string `mapstructure:"default_model"`
}

type SecurityConfig struct {
	// PhoneKey encrypts stored phone numbers, 32 bytes
	PhoneKey  string          `mapstructure:"phone_key"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
	// WebhookPerMinute caps deliveries per source address, 0 disables
	WebhookPerMinute int `mapstructure:"webhook_per_minute"`
}

type LoggingConfig struct {
	Level        string        `mapstructure:"level"`
	Format       string        `mapstructure:"format"`
	File         string        `mapstructure:"file"`
	MaxAge       time.Duration `mapstructure:"max_age"`
	RotationTime time.Duration `mapstructure:"rotation_time"`
}

type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// SetConfigFile reports a missing file as an os error, not ConfigFileNotFoundError
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that have no safe default
func (c *Config) Validate() error {
	switch c.Storage.Sessions {
	case "postgres", "sqlite", "redis":
	default:
		return fmt.Errorf("invalid storage.sessions %q", c.Storage.Sessions)
	}
	switch c.Storage.Records {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid storage.records %q", c.Storage.Records)
	}
	switch c.Intake.HistorySource {
	case "platform", "log":
	default:
		return fmt.Errorf("invalid intake.history_source %q", c.Intake.HistorySource)
	}
	if c.Intake.MaxSaveRetries < 1 {
		return fmt.Errorf("intake.max_save_retries must be at least 1")
	}
	if c.Security.PhoneKey != "" && len(c.Security.PhoneKey) != 32 {
		return fmt.Errorf("security.phone_key must be 32 bytes")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.middleware_timeout", "25s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Storage
	v.SetDefault("storage.sessions", "postgres")
	v.SetDefault("storage.records", "postgres")

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "intake")
	v.SetDefault("database.database", "intake")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)

	// SQLite
	v.SetDefault("sqlite.path", "./data/intake.db")

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.session_ttl", "720h")

	// Mongo
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "intake")
	v.SetDefault("mongo.collection", "turns")

	// ERP
	v.SetDefault("erp.host", "localhost")
	v.SetDefault("erp.port", 3306)
	v.SetDefault("erp.user", "erp")
	v.SetDefault("erp.database", "erp")
	v.SetDefault("erp.order_prefix", "ZL")
	v.SetDefault("erp.list_limit", 5)

	// Zalo
	v.SetDefault("zalo.api_base", "https://openapi.zalo.me")
	v.SetDefault("zalo.oauth_base", "https://oauth.zaloapp.com")
	v.SetDefault("zalo.timeout", "10s")
	v.SetDefault("zalo.rate_per_second", 8)
	v.SetDefault("zalo.burst", 4)
	v.SetDefault("zalo.history_count", 10)

	// Intake
	v.SetDefault("intake.brand", "VNG Glass")
	v.SetDefault("intake.support_phone", "0123456789")
	v.SetDefault("intake.history_source", "platform")
	v.SetDefault("intake.history_limit", 200)
	v.SetDefault("intake.history_timeout", "5s")
	v.SetDefault("intake.order_timeout", "10s")
	v.SetDefault("intake.send_timeout", "5s")
	v.SetDefault("intake.max_save_retries", 3)
	v.SetDefault("intake.lock_ttl", "30s")
	v.SetDefault("intake.distributed_lock", false)
	v.SetDefault("intake.assistant_enabled", false)

	// LLM
	v.SetDefault("llm.default_provider", "gemini")
	v.SetDefault("llm.timeout", "8s")
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash")
	v.SetDefault("llm.ollama.host", "http://localhost:11434")
	v.SetDefault("llm.ollama.default_model", "llama3")

	// Security
	v.SetDefault("security.rate_limit.enabled", true)
	v.SetDefault("security.rate_limit.requests_per_minute", 30)
	v.SetDefault("security.rate_limit.burst", 10)
	v.SetDefault("security.rate_limit.webhook_per_minute", 1200)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_age", "168h")
	v.SetDefault("logging.rotation_time", "24h")

	// Audit
	v.SetDefault("audit.enabled", false)
}

func bindEnvVars(v *viper.Viper) {
	// Database
	v.BindEnv("database.host", "POSTGRES_HOST")
	v.BindEnv("database.password", "POSTGRES_PASSWORD")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Mongo
	v.BindEnv("mongo.uri", "MONGO_URI")

	// ERP
	v.BindEnv("erp.host", "ERP_DB_HOST")
	v.BindEnv("erp.password", "ERP_DB_PASSWORD")

	// Zalo
	v.BindEnv("zalo.app_id", "ZALO_APP_ID")
	v.BindEnv("zalo.secret_key", "ZALO_SECRET_KEY")
	v.BindEnv("zalo.access_token", "ZALO_ACCESS_TOKEN")
	v.BindEnv("zalo.refresh_token", "ZALO_REFRESH_TOKEN")

	// Server
	v.BindEnv("server.port", "SERVER_PORT")

	// Security
	v.BindEnv("security.phone_key", "PHONE_ENCRYPTION_KEY")

	// LLM
	v.BindEnv("llm.gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("llm.ollama.host", "OLLAMA_HOST")
}
