package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "release_confidence", cfg.Database.Database)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "releases.evaluated", cfg.NATS.Subject)
	assert.Equal(t, int64(10*1024*1024), cfg.Webhook.MaxPayloadBytes)
	assert.Equal(t, 60, cfg.Webhook.RateLimitPerMinute)
	assert.Equal(t, []string{"http://localhost:8080", "http://127.0.0.1:8080"}, cfg.Security.AllowedOrigins)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "auth without token",
			env:     map[string]string{"AUTH_ENABLED": "true", "AUTH_BEARER_TOKEN": ""},
			wantErr: "AUTH_BEARER_TOKEN",
		},
		{
			name:    "unknown db driver",
			env:     map[string]string{"DB_DRIVER": "sqlite"},
			wantErr: "DB_DRIVER",
		},
		{
			name:    "s3 without bucket",
			env:     map[string]string{"S3_ENABLED": "true", "S3_BUCKET": ""},
			wantErr: "S3_BUCKET",
		},
		{
			name:    "invalid redis ttl",
			env:     map[string]string{"REDIS_TTL": "soon"},
			wantErr: "REDIS_TTL",
		},
		{
			name:    "invalid rate limit",
			env:     map[string]string{"WEBHOOK_RATE_LIMIT_PER_MINUTE": "many"},
			wantErr: "WEBHOOK_RATE_LIMIT_PER_MINUTE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Database: "rc", SSLMode: "require"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=rc sslmode=require", db.DSN())
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitCSV(" a, ,b ,"))
	assert.Empty(t, splitCSV(""))
}
