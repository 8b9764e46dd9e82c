package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("DB_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.HttpPort)
	assert.Equal(t, 100, cfg.RateLimitRequests)
	assert.Equal(t, int64(60), cfg.RateLimitWindow)
	assert.Equal(t, 30, cfg.CacheTTLPrices)
	assert.Equal(t, 168*time.Hour, cfg.AnalyticsTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "30")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 5, cfg.RateLimitRequests)
	assert.Equal(t, int64(30), cfg.RateLimitWindow)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "s3cret", cfg.SecretOrDefault())
}

func TestLoadRejectsMissingProductionSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "postgres")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment:       EnvDevelopment,
			DBDriver:          "postgres",
			RateLimitRequests: 100,
			RateLimitWindow:   60,
			CacheTTLPrices:    30,
		}
	}

	assert.NoError(t, base().Validate())

	c := base()
	c.DBDriver = "mysql"
	assert.Error(t, c.Validate())

	c = base()
	c.RateLimitWindow = 0
	assert.Error(t, c.Validate())

	c = base()
	c.Environment = "qa"
	assert.Error(t, c.Validate())
}

func TestPostgresDSN(t *testing.T) {
	c := &Config{DatabaseURL: "postgres://u:p@db/ido"}
	assert.Equal(t, "postgres://u:p@db/ido", c.PostgresDSN())

	c = &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "ido", DBPort: "5432", DBSSLMode: "disable", DBTimezone: "UTC"}
	assert.Equal(t, "host=db user=u password=p dbname=ido port=5432 sslmode=disable TimeZone=UTC", c.PostgresDSN())
}
