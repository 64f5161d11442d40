package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port                string
	Env                 string
	PostgresUser        string
	PostgresPassword    string
	PostgresDB          string
	PostgresHost        string
	PostgresPort        string
	PostgresSSLMode     string
	PostgresTimeZone    string
	JWTSecret           string
	StripeSecretKey     string
	StripeWebhookSecret string
	PaymentSNSTopicARN  string
	AllowedOrigins      string
	RateLimitRPS        float64
	RateLimitBurst      int
}

// SecretMapGetter is satisfied by *aws_pkg.SecretsClient.
type SecretMapGetter interface {
	GetSecretMap(ctx context.Context, name string) (map[string]string, error)
}

// LoadConfig reads the environment and, when secrets is non-nil, overlays
// the JSON secret named by PAYMENT_SECRET_NAME.
func LoadConfig(ctx context.Context, secrets SecretMapGetter) (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8087"),
		Env:                 getEnv("ENV", "development"),
		PostgresUser:        os.Getenv("POSTGRES_USER"),
		PostgresPassword:    os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:          os.Getenv("POSTGRES_DB"),
		PostgresHost:        getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:        getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:     getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone:    getEnv("POSTGRES_TIMEZONE", "Asia/Kolkata"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", os.Getenv("STRIPE_API_KEY")),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PaymentSNSTopicARN:  os.Getenv("PAYMENT_SNS_TOPIC_ARN"),
		AllowedOrigins:      os.Getenv("ALLOWED_ORIGINS"),
		RateLimitRPS:        20,
		RateLimitBurst:      40,
	}

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = f
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimitBurst = n
	}

	if secrets != nil {
		name := getEnv("PAYMENT_SECRET_NAME", "payment-service/config")
		m, err := secrets.GetSecretMap(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load secret %s: %w", name, err)
		}
		for key, dst := range map[string]*string{
			"POSTGRES_USER":         &cfg.PostgresUser,
			"POSTGRES_PASSWORD":     &cfg.PostgresPassword,
			"POSTGRES_DB":           &cfg.PostgresDB,
			"POSTGRES_HOST":         &cfg.PostgresHost,
			"POSTGRES_PORT":         &cfg.PostgresPort,
			"JWT_SECRET":            &cfg.JWTSecret,
			"STRIPE_SECRET_KEY":     &cfg.StripeSecretKey,
			"STRIPE_WEBHOOK_SECRET": &cfg.StripeWebhookSecret,
		} {
			if v, ok := m[key]; ok && v != "" {
				*dst = v
			}
		}
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" {
		return nil, fmt.Errorf("missing required Postgres environment variables")
	}
	if cfg.StripeWebhookSecret == "" {
		return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// DSN returns the lib/pq style connection string for the ledger database.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB,
		c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone,
	)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
