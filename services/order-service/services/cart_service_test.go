package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/storefront/services/order-service/models"
)

func TestCartService(t *testing.T) {
	users := newMockUserRepo()
	users.carts["user-1"] = models.CartData{}
	svc := NewCartService(users, nil)
	ctx := context.Background()

	require.Nil(t, svc.AddToCart(ctx, "user-1", "p1", "red"))
	require.Nil(t, svc.AddToCart(ctx, "user-1", "p1", "red"))
	require.Nil(t, svc.AddToCart(ctx, "user-1", "p1", "blue"))

	cart, se := svc.GetCart(ctx, "user-1")
	require.Nil(t, se)
	assert.Equal(t, int64(2), cart["p1"]["red"])
	assert.Equal(t, int64(1), cart["p1"]["blue"])

	require.Nil(t, svc.UpdateCart(ctx, "user-1", "p1", "red", 5))
	require.Nil(t, svc.UpdateCart(ctx, "user-1", "p1", "blue", 0))

	cart, se = svc.GetCart(ctx, "user-1")
	require.Nil(t, se)
	assert.Equal(t, int64(5), cart["p1"]["red"])
	assert.NotContains(t, cart["p1"], "blue")
}

func TestCartService_Errors(t *testing.T) {
	svc := NewCartService(newMockUserRepo(), nil)
	ctx := context.Background()

	se := svc.AddToCart(ctx, "ghost", "p1", "red")
	require.NotNil(t, se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)

	se = svc.AddToCart(ctx, "ghost", "", "red")
	require.NotNil(t, se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)

	se = svc.UpdateCart(ctx, "ghost", "p1", "red", -1)
	require.NotNil(t, se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
}
