package models

import "time"

const (
	OrderEventPlaced        = "order.placed"
	OrderEventPaid          = "order.paid"
	OrderEventCancelled     = "order.cancelled"
	OrderEventStatusUpdated = "order.status_updated"
)

// OrderEvent is published to ORDER_SNS_TOPIC_ARN on every order transition.
type OrderEvent struct {
	Type          string        `json:"type"`
	OrderID       string        `json:"order_id"`
	UserID        string        `json:"user_id"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	FinalAmount   float64       `json:"final_amount"`
	Currency      string        `json:"currency"`
	Status        string        `json:"status"`
	Timestamp     time.Time     `json:"timestamp"`
}

const (
	PaymentEventSucceeded = "payment_succeeded"
	PaymentEventFailed    = "payment_failed"
)

// PaymentEvent is what payment-service publishes after a Stripe webhook.
type PaymentEvent struct {
	Type      string    `json:"type"`
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	Currency  string    `json:"currency,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
