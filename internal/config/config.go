package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported loan store backends
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Store     StoreConfig     `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Mongo     MongoConfig     `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Blob      BlobConfig      `mapstructure:",squash"`
	Upload    UploadConfig    `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	App       AppConfig       `mapstructure:",squash"`
	Health    HealthConfig    `mapstructure:",squash"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"SERVER_PORT"`
	Host            string        `mapstructure:"SERVER_HOST"`
	Env             string        `mapstructure:"ENV"`
	ReadTimeout     time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SERVER_SHUTDOWN_TIMEOUT"`
}

type StoreConfig struct {
	Driver string `mapstructure:"STORE_DRIVER"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
	AutoMigrate     bool          `mapstructure:"DATABASE_AUTO_MIGRATE"`
}

type MongoConfig struct {
	URL        string        `mapstructure:"MONGODB_URL"`
	Database   string        `mapstructure:"MONGODB_DATABASE"`
	Collection string        `mapstructure:"MONGODB_COLLECTION"`
	Timeout    time.Duration `mapstructure:"MONGODB_CONNECT_TIMEOUT"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type BlobConfig struct {
	Endpoint  string `mapstructure:"MINIO_ENDPOINT"`
	AccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	SecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	Bucket    string `mapstructure:"MINIO_BUCKET"`
	UseSSL    bool   `mapstructure:"MINIO_USE_SSL"`
	PublicURL string `mapstructure:"MINIO_PUBLIC_URL"`
}

type UploadConfig struct {
	TokenTTL     time.Duration `mapstructure:"UPLOAD_TOKEN_TTL"`
	MaxBytes     int64         `mapstructure:"UPLOAD_MAX_BYTES"`
	AllowedTypes []string      `mapstructure:"UPLOAD_ALLOWED_TYPES"`
}

type SchedulerConfig struct {
	DigestSpec   string `mapstructure:"SCHEDULER_DIGEST_CRON"`
	ReminderSpec string `mapstructure:"SCHEDULER_REMINDER_CRON"`
	ReminderDays int    `mapstructure:"SCHEDULER_REMINDER_DAYS"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type AppConfig struct {
	Timezone string `mapstructure:"APP_TIMEZONE"`
}

type HealthConfig struct {
	Timeout time.Duration `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

var defaults = map[string]any{
	"SERVER_PORT":                "8080",
	"SERVER_HOST":                "0.0.0.0",
	"ENV":                        "development",
	"SERVER_READ_TIMEOUT":        "15s",
	"SERVER_WRITE_TIMEOUT":       "30s",
	"SERVER_SHUTDOWN_TIMEOUT":    "30s",
	"STORE_DRIVER":               StoreDriverPostgres,
	"DATABASE_URL":               "",
	"DATABASE_MAX_OPEN_CONNS":    25,
	"DATABASE_MAX_IDLE_CONNS":    5,
	"DATABASE_CONN_MAX_LIFETIME": "1h",
	"DATABASE_AUTO_MIGRATE":      true,
	"MONGODB_URL":                "",
	"MONGODB_DATABASE":           "loan_tracker",
	"MONGODB_COLLECTION":         "loans",
	"MONGODB_CONNECT_TIMEOUT":    "10s",
	"REDIS_HOST":                 "localhost",
	"REDIS_PORT":                 "6379",
	"REDIS_PASSWORD":             "",
	"REDIS_DB":                   0,
	"MINIO_ENDPOINT":             "localhost:9000",
	"MINIO_ACCESS_KEY":           "",
	"MINIO_SECRET_KEY":           "",
	"MINIO_BUCKET":               "receipts",
	"MINIO_USE_SSL":              false,
	"MINIO_PUBLIC_URL":           "",
	"UPLOAD_TOKEN_TTL":           "10m",
	"UPLOAD_MAX_BYTES":           10 << 20,
	"UPLOAD_ALLOWED_TYPES":       "image/jpeg,image/png,video/mp4",
	"SCHEDULER_DIGEST_CRON":      "0 0 0 * * *",
	"SCHEDULER_REMINDER_CRON":    "0 0 9 * * *",
	"SCHEDULER_REMINDER_DAYS":    3,
	"LOG_LEVEL":                  "info",
	"LOG_FORMAT":                 "json",
	"APP_TIMEZONE":               "Asia/Ulaanbaatar",
	"HEALTH_CHECK_TIMEOUT":       "5s",
}

// Load reads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	// .env only fills variables that are not already set
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	config.Upload.AllowedTypes = normalizeList(config.Upload.AllowedTypes)

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func normalizeList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is %s", StoreDriverPostgres)
		}
	case StoreDriverMongo:
		if c.Mongo.URL == "" {
			return fmt.Errorf("MONGODB_URL is required when STORE_DRIVER is %s", StoreDriverMongo)
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMongo, c.Store.Driver)
	}

	if c.Blob.Bucket == "" {
		return fmt.Errorf("MINIO_BUCKET is required")
	}

	if c.Upload.TokenTTL <= 0 {
		return fmt.Errorf("UPLOAD_TOKEN_TTL must be greater than 0")
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be greater than 0")
	}

	if len(c.Upload.AllowedTypes) == 0 {
		return fmt.Errorf("UPLOAD_ALLOWED_TYPES must list at least one content type")
	}

	if c.Scheduler.ReminderDays < 0 {
		return fmt.Errorf("SCHEDULER_REMINDER_DAYS must not be negative")
	}

	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE must be a valid IANA zone: %w", err)
	}

	if c.Health.Timeout <= 0 {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be greater than 0")
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// Location returns the zone "today" is computed in
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Addr returns the listen address of the HTTP server
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// RedisAddr returns host:port of the redis server
func (c *Config) RedisAddr() string {
	return c.Redis.Host + ":" + c.Redis.Port
}
