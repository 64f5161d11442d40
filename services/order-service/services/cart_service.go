package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/yashrajoria/storefront/services/order-service/models"
	"github.com/yashrajoria/storefront/services/order-service/repository"
	"go.uber.org/zap"
)

// CartService manages the cart stored on the user document.
type CartService interface {
	AddToCart(ctx context.Context, userID, itemID, color string) *ServiceError
	UpdateCart(ctx context.Context, userID, itemID, color string, quantity int64) *ServiceError
	GetCart(ctx context.Context, userID string) (models.CartData, *ServiceError)
}

type cartServiceImpl struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func NewCartService(users repository.UserRepository, logger *zap.Logger) CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cartServiceImpl{users: users, logger: logger}
}

func (s *cartServiceImpl) AddToCart(ctx context.Context, userID, itemID, color string) *ServiceError {
	return s.mapErr(s.users.IncrementCartItem(ctx, userID, itemID, color), userID)
}

// UpdateCart sets the quantity of one product/colour; zero removes it.
func (s *cartServiceImpl) UpdateCart(ctx context.Context, userID, itemID, color string, quantity int64) *ServiceError {
	if quantity < 0 {
		return &ServiceError{StatusCode: http.StatusBadRequest, Message: "quantity must not be negative"}
	}
	return s.mapErr(s.users.SetCartItem(ctx, userID, itemID, color, quantity), userID)
}

func (s *cartServiceImpl) GetCart(ctx context.Context, userID string) (models.CartData, *ServiceError) {
	cart, err := s.users.GetCart(ctx, userID)
	if se := s.mapErr(err, userID); se != nil {
		return nil, se
	}
	return cart, nil
}

func (s *cartServiceImpl) mapErr(err error, userID string) *ServiceError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrInvalidCartKey):
		return &ServiceError{StatusCode: http.StatusBadRequest, Message: "itemId and color are required"}
	case errors.Is(err, repository.ErrInvalidID):
		return &ServiceError{StatusCode: http.StatusBadRequest, Message: "Invalid user id"}
	case errors.Is(err, repository.ErrNotFound):
		return &ServiceError{StatusCode: http.StatusNotFound, Message: "User not found"}
	default:
		s.logger.Error("cart operation failed", zap.String("user_id", userID), zap.Error(err))
		return internalError("Failed to update cart")
	}
}
