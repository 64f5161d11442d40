package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yashrajoria/storefront/services/order-service/models"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrInvalidID   = errors.New("invalid object id")
	ErrAlreadyPaid = errors.New("order already paid")
)

// OrderRepository is the persistence boundary for orders. IDs are the hex
// form of the Mongo ObjectID.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindAll(ctx context.Context) ([]models.Order, error)
	FindByUserID(ctx context.Context, userID string) ([]models.Order, error)
	// MarkPaid and DeleteUnpaid only touch an unpaid order. Both return
	// ErrAlreadyPaid when the order exists but is paid.
	MarkPaid(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id, status string) error
	SetCheckoutSession(ctx context.Context, id, sessionID string) error
	DeleteUnpaid(ctx context.Context, id string) error
	EnsureIndexes(ctx context.Context) error
}

// UserRepository covers the cart held on the user document.
type UserRepository interface {
	GetCart(ctx context.Context, userID string) (models.CartData, error)
	SaveCart(ctx context.Context, userID string, cart models.CartData) error
	IncrementCartItem(ctx context.Context, userID, itemID, color string) error
	SetCartItem(ctx context.Context, userID, itemID, color string, quantity int64) error
	ClearCart(ctx context.Context, userID string) error
}

// IdempotencyRepository remembers the outcome of a placement request keyed
// by the client's Idempotency-Key.
type IdempotencyRepository interface {
	// Reserve claims key. It returns false if the key is already claimed or
	// completed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Get returns the stored value, "" while the key is only reserved, or
	// ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	Complete(ctx context.Context, key, value string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}
