package services

import (
	"fmt"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/webhook"
)

// StripeService verifies webhook signatures and, when an API key is
// configured, reads sessions back from Stripe.
type StripeService struct {
	webhookSecret string
	hasAPIKey     bool
}

func NewStripeService(secretKey, webhookSecret string) *StripeService {
	if secretKey != "" {
		stripe.Key = secretKey
	}
	return &StripeService{webhookSecret: webhookSecret, hasAPIKey: secretKey != ""}
}

// ParseWebhook checks the Stripe-Signature header against the raw body.
// API version mismatches are tolerated since only session fields are read.
func (s *StripeService) ParseWebhook(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("webhook signature verification failed: %w", err)
	}
	return event, nil
}

// SessionMetadata fetches a checkout session's metadata. It is used when a
// webhook payload arrives without metadata.
func (s *StripeService) SessionMetadata(sessionID string) (map[string]string, error) {
	if !s.hasAPIKey {
		return nil, fmt.Errorf("stripe API key not configured")
	}
	sess, err := session.Get(sessionID, nil)
	if err != nil {
		return nil, err
	}
	return sess.Metadata, nil
}
