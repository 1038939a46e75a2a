package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "storefront-gateway", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 4, cfg.Queue.WorkerCount)
	assert.Equal(t, 2*time.Second, cfg.Queue.PollInterval)
	assert.Equal(t, 5, cfg.Queue.MaxAttempts)
	assert.Equal(t, 100, cfg.Feed.PageSize)
	assert.Equal(t, 10*time.Second, cfg.Feed.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Queue.DedupTTL)
}

func TestValidate_ConnectionPool(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Database.MaxIdleConns = cfg.Database.MaxOpenConns + 1

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_idle_conns")
}

func TestValidate_CipherKey(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	t.Run("Invalid hex", func(t *testing.T) {
		cfg.Secrets.CipherKeyHex = "not-hex"
		assert.Error(t, cfg.validate())
	})

	t.Run("Wrong length", func(t *testing.T) {
		cfg.Secrets.CipherKeyHex = "abcd"
		assert.Error(t, cfg.validate())
	})

	t.Run("Valid 32-byte key", func(t *testing.T) {
		cfg.Secrets.CipherKeyHex = strings.Repeat("ab", 32)
		assert.NoError(t, cfg.validate())

		key, err := cfg.Secrets.CipherKey()
		require.NoError(t, err)
		assert.Len(t, key, 32)
	})
}

func TestValidate_Production(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.App.Env = "production"

	err := cfg.validate()
	require.Error(t, err, "production without cipher key must fail")

	cfg.Secrets.CipherKeyHex = strings.Repeat("ab", 32)
	cfg.Operator.JWTSecret = strings.Repeat("s", 32)
	cfg.Database.Password = "password"
	cfg.Database.SSLMode = "require"
	cfg.Feed.BaseURL = "https://feed.example.com"
	assert.NoError(t, cfg.validate())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "gateway",
		Password: "p@ss/word",
		DBName:   "storefront",
		SSLMode:  "require",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5432")
	assert.Contains(t, dsn, "sslmode=require")
	assert.NotContains(t, dsn, "p@ss/word", "password must be escaped")
}
