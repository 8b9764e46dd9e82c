package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds all application configuration.
type Config struct {
	Environment    string `koanf:"environment"`
	HttpPort       int    `koanf:"http_port"`
	PrometheusPort int    `koanf:"prometheus_port"`
	LogLevel       string `koanf:"log_level"`
	LogFormat      string `koanf:"log_format"`
	CorsOrigins    string `koanf:"cors_origins"`

	// Relational store
	DBDriver    string `koanf:"db_driver"`
	DatabaseURL string `koanf:"database_url"`
	DBHost      string `koanf:"db_host"`
	DBPort      string `koanf:"db_port"`
	DBUser      string `koanf:"db_user"`
	DBPassword  string `koanf:"db_password"`
	DBName      string `koanf:"db_name"`
	DBSSLMode   string `koanf:"db_sslmode"`
	DBTimezone  string `koanf:"db_timezone"`
	SqlitePath  string `koanf:"sqlite_path"`

	// Counter store
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// Blob storage
	MinioEndpoint  string `koanf:"minio_endpoint"`
	MinioAccessKey string `koanf:"minio_access_key"`
	MinioSecretKey string `koanf:"minio_secret_key"`
	MinioUseSSL    bool   `koanf:"minio_use_ssl"`
	MinioBucket    string `koanf:"minio_bucket_name"`

	// Auth
	JWTSecret string `koanf:"jwt_secret"`

	// Outgoing mail
	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     string `koanf:"smtp_port"`
	SMTPUsername string `koanf:"smtp_username"`
	SMTPPassword string `koanf:"smtp_password"`
	FromEmail    string `koanf:"from_email"`
	FromName     string `koanf:"from_name"`
	BaseURL      string `koanf:"base_url"`

	// Rate limiting (global policy)
	RateLimitRequests int   `koanf:"rate_limit_requests"`
	RateLimitWindow   int64 `koanf:"rate_limit_window"`

	// Caching
	CacheTTLPrices int `koanf:"cache_ttl_prices"`

	// Analytics
	AnalyticsPrefix string        `koanf:"analytics_prefix"`
	AnalyticsTTL    time.Duration `koanf:"analytics_ttl"`
	AnalyticsBuffer int           `koanf:"analytics_buffer"`
	KafkaBrokers    []string      `koanf:"kafka_brokers"`
	KafkaTopic      string        `koanf:"kafka_topic"`
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// PostgresDSN returns DATABASE_URL or a DSN built from the DB_* keys.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimezone)
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"environment":         EnvDevelopment,
		"http_port":           8000,
		"prometheus_port":     2112,
		"log_level":           "info",
		"log_format":          "json",
		"cors_origins":        "*",
		"db_driver":           "postgres",
		"db_host":             "localhost",
		"db_port":             "5432",
		"db_user":             "postgres",
		"db_password":         "postgres",
		"db_name":             "ido_api",
		"db_sslmode":          "disable",
		"db_timezone":         "UTC",
		"sqlite_path":         "ido_api.db",
		"redis_addr":          "localhost:6379",
		"redis_db":            0,
		"minio_endpoint":      "localhost:9000",
		"minio_access_key":    "admin",
		"minio_secret_key":    "password123",
		"minio_use_ssl":       false,
		"minio_bucket_name":   "ido-assets",
		"smtp_port":           "587",
		"from_name":           "IDO Platform",
		"base_url":            "http://localhost:3000",
		"rate_limit_requests": 100,
		"rate_limit_window":   60,
		"cache_ttl_prices":    30,
		"analytics_prefix":    "analytics",
		"analytics_ttl":       "168h",
		"analytics_buffer":    1024,
		"kafka_topic":         "ido-analytics",
	}
}

// Load reads configuration from defaults, an optional .env file and the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(&rawProvider{data: defaults()}, nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.KafkaBrokers = splitCSV(k.String("kafka_brokers"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and semantic constraints.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvProduction, "staging", "test":
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging, test or production; got %q", c.Environment)
	}

	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite; got %q", c.DBDriver)
	}

	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}

	if c.RateLimitRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive; got %d", c.RateLimitRequests)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive; got %d", c.RateLimitWindow)
	}
	if c.CacheTTLPrices <= 0 {
		return fmt.Errorf("CACHE_TTL_PRICES must be positive; got %d", c.CacheTTLPrices)
	}
	return nil
}

// SecretOrDefault returns the JWT secret, falling back to a development value outside production.
func (c *Config) SecretOrDefault() string {
	if c.JWTSecret != "" {
		return c.JWTSecret
	}
	if host, err := os.Hostname(); err == nil {
		return "dev-secret-" + host
	}
	return "dev-secret"
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// rawProvider implements koanf.Provider for a map[string]interface{}.
type rawProvider struct {
	data map[string]interface{}
}

func (r *rawProvider) Read() (map[string]interface{}, error) {
	return r.data, nil
}

func (r *rawProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("rawProvider does not support ReadBytes")
}
