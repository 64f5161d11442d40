package models

import "time"

const (
	PaymentEventSucceeded = "payment_succeeded"
	PaymentEventFailed    = "payment_failed"
)

// PaymentEvent is published to SNS whenever a ledger row reaches a terminal
// status. The order service consumes it from SQS.
type PaymentEvent struct {
	Type      string    `json:"type"`
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	PaymentID string    `json:"payment_id"`
	SessionID string    `json:"session_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Timestamp time.Time `json:"timestamp"`
}

// EventTypeFor maps a terminal ledger status to its event type.
func EventTypeFor(status string) string {
	if status == PaymentStatusSucceeded {
		return PaymentEventSucceeded
	}
	return PaymentEventFailed
}
