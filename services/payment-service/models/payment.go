package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
)

// IsTerminal reports whether a ledger row in this status may no longer change.
func IsTerminal(status string) bool {
	return status == PaymentStatusSucceeded || status == PaymentStatusFailed
}

// Payment is one ledger row per Stripe checkout session. OrderID is the hex
// ObjectID of the order document.
type Payment struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID       string     `gorm:"type:varchar(24);index;not null" json:"order_id"`
	UserID        string     `gorm:"type:varchar(64);index;not null" json:"user_id"`
	SessionID     string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"session_id"`
	Amount        int64      `gorm:"not null" json:"amount"`
	Currency      string     `gorm:"type:varchar(10);not null" json:"currency"`
	Status        string     `gorm:"type:varchar(20);not null" json:"status"`
	StripeEventID string     `gorm:"type:varchar(255)" json:"-"`
	SucceededAt   *time.Time `json:"succeeded_at,omitempty"`
	FailedAt      *time.Time `json:"failed_at,omitempty"`
	PublishedAt   *time.Time `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
