package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yashrajoria/storefront/services/order-service/pricing"
)

type Config struct {
	Port                  string
	Env                   string
	MongoURI              string
	MongoDB               string
	RedisURL              string
	JWTSecret             string
	StripeSecretKey       string
	Currency              string
	DeliveryCharge        float64
	DiscountRate          float64
	OrderSNSTopicARN      string
	PaymentEventsQueueURL string
	AllowedOrigins        string
	IdempotencyTTL        time.Duration
	RateLimitRPS          float64
	RateLimitBurst        int
}

// secretMapGetter is satisfied by *aws_pkg.SecretsClient.
type secretMapGetter interface {
	GetSecretMap(ctx context.Context, name string) (map[string]string, error)
}

// LoadConfig reads the environment and, when secrets is non-nil, overlays
// the JSON secret named by ORDER_SECRET_NAME.
func LoadConfig(ctx context.Context, secrets secretMapGetter) (*Config, error) {
	cfg := &Config{
		Port:                  getEnv("PORT", "8083"),
		Env:                   getEnv("ENV", "development"),
		MongoURI:              os.Getenv("MONGODB_URI"),
		MongoDB:               getEnv("MONGODB_DB", "ecommerce"),
		RedisURL:              os.Getenv("REDIS_URL"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		StripeSecretKey:       os.Getenv("STRIPE_SECRET_KEY"),
		Currency:              getEnv("CURRENCY", pricing.DefaultCurrency),
		OrderSNSTopicARN:      os.Getenv("ORDER_SNS_TOPIC_ARN"),
		PaymentEventsQueueURL: os.Getenv("PAYMENT_EVENTS_QUEUE_URL"),
		AllowedOrigins:        os.Getenv("ALLOWED_ORIGINS"),
	}

	var err error
	if cfg.DeliveryCharge, err = getFloat("DELIVERY_CHARGE", pricing.DefaultDeliveryCharge); err != nil {
		return nil, err
	}
	if cfg.DiscountRate, err = getFloat("DISCOUNT_RATE", pricing.DefaultDiscountRate); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 10); err != nil {
		return nil, err
	}
	burst, err := getFloat("RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitBurst = int(burst)
	if cfg.IdempotencyTTL, err = time.ParseDuration(getEnv("IDEMPOTENCY_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("invalid IDEMPOTENCY_TTL: %w", err)
	}

	if secrets != nil {
		name := getEnv("ORDER_SECRET_NAME", "order-service/config")
		m, err := secrets.GetSecretMap(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load secret %s: %w", name, err)
		}
		overlay(&cfg.MongoURI, m["MONGODB_URI"])
		overlay(&cfg.JWTSecret, m["JWT_SECRET"])
		overlay(&cfg.StripeSecretKey, m["STRIPE_SECRET_KEY"])
		overlay(&cfg.RedisURL, m["REDIS_URL"])
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DiscountRate < 0 || cfg.DiscountRate >= 1 {
		return nil, fmt.Errorf("DISCOUNT_RATE must be in [0, 1)")
	}
	return cfg, nil
}

// PricingRules returns the pricing parameters for the order service.
func (c *Config) PricingRules() pricing.Rules {
	return pricing.Rules{
		Currency:       c.Currency,
		DeliveryCharge: decimal.NewFromFloat(c.DeliveryCharge),
		DiscountRate:   decimal.NewFromFloat(c.DiscountRate),
	}
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getFloat(key string, fallback float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
