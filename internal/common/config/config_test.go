package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 8*time.Second, cfg.Twitter.FetchTimeout)
	assert.Equal(t, "settlement:events", cfg.Settlement.StreamKey)
	assert.Equal(t, "@every 1m", cfg.Reconcile.Schedule)
	assert.False(t, cfg.Postgres.AutoMigrate)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("TWITTER_FETCH_TIMEOUT", "3s")
	t.Setenv("PUBLIC_BASE_URL", "https://giveaways.example.com/")
	t.Setenv("SETTLEMENT_TRANSPORT", "memory")
	t.Setenv("POSTGRES_PORT", "6543")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, 3*time.Second, cfg.Twitter.FetchTimeout)
	assert.Equal(t, "https://giveaways.example.com", cfg.Server.PublicBaseURL)
	assert.Equal(t, SettlementTransportMemory, cfg.Settlement.Transport)
	assert.Contains(t, cfg.Postgres.GetDSN(), "port=6543")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown store driver", env: map[string]string{"STORE_DRIVER": "mysql"}},
		{name: "unknown transport", env: map[string]string{"SETTLEMENT_TRANSPORT": "kafka"}},
		{name: "amqp without url", env: map[string]string{"SETTLEMENT_TRANSPORT": "amqp"}},
		{name: "zero fetch timeout", env: map[string]string{"TWITTER_FETCH_TIMEOUT": "0s"}},
		{name: "malformed duration", env: map[string]string{"TWITTER_FETCH_TIMEOUT": "soon"}},
		{name: "blank jwt secret", env: map[string]string{"AUTH_JWT_SECRET": "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AUTH_JWT_SECRET", "test-secret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")
}

func TestGetDSN(t *testing.T) {
	p := PostgresConfig{
		Host:     "db",
		Port:     5432,
		User:     "app",
		Password: "secret",
		Database: "giveaways",
		SSLMode:  "require",
	}
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=giveaways sslmode=require", p.GetDSN())
}
