package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSecrets map[string]string

func (s staticSecrets) GetSecretMap(context.Context, string) (map[string]string, error) {
	return s, nil
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRES_USER", "payments")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("POSTGRES_DB", "ledger")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("STRIPE_API_KEY", "sk_legacy")

	cfg, err := LoadConfig(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "8087", cfg.Port)
	assert.Equal(t, "localhost", cfg.PostgresHost)
	assert.Equal(t, "sk_legacy", cfg.StripeSecretKey)
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.Equal(t,
		"host=localhost user=payments password=pw dbname=ledger port=5432 sslmode=disable TimeZone=Asia/Kolkata",
		cfg.DSN())
}

func TestLoadConfig_MissingWebhookSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	_, err := LoadConfig(context.Background(), nil)
	assert.ErrorContains(t, err, "STRIPE_WEBHOOK_SECRET")
}

func TestLoadConfig_InvalidRateLimit(t *testing.T) {
	setRequired(t)
	t.Setenv("RATE_LIMIT_BURST", "lots")

	_, err := LoadConfig(context.Background(), nil)
	assert.Error(t, err)
}

func TestLoadConfig_SecretsOverlay(t *testing.T) {
	setRequired(t)
	t.Setenv("POSTGRES_PASSWORD", "")

	cfg, err := LoadConfig(context.Background(), staticSecrets{
		"POSTGRES_PASSWORD":     "from-secrets",
		"STRIPE_WEBHOOK_SECRET": "whsec_live",
	})
	require.NoError(t, err)
	assert.Equal(t, "from-secrets", cfg.PostgresPassword)
	assert.Equal(t, "whsec_live", cfg.StripeWebhookSecret)
}
