package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSessionParams(t *testing.T) {
	params := buildSessionParams(CheckoutRequest{
		OrderID:    "order-1",
		UserID:     "user-1",
		Currency:   "inr",
		SuccessURL: "http://localhost:5173/verify?success=true&orderId=order-1",
		CancelURL:  "http://localhost:5173/verify?success=false&orderId=order-1",
		Lines: []CheckoutLine{
			{Name: "Cotton Shirt", UnitAmount: 40000, Quantity: 2},
			{Name: "Delivery Charges", UnitAmount: 10000, Quantity: 1},
		},
	})

	assert.Equal(t, "payment", *params.Mode)
	assert.Equal(t, "order-1", *params.ClientReferenceID)
	assert.Equal(t, "order-1", params.Metadata["order_id"])
	assert.Equal(t, "user-1", params.Metadata["user_id"])
	require.Len(t, params.LineItems, 2)

	first := params.LineItems[0]
	assert.Equal(t, "inr", *first.PriceData.Currency)
	assert.Equal(t, "Cotton Shirt", *first.PriceData.ProductData.Name)
	assert.Equal(t, int64(40000), *first.PriceData.UnitAmount)
	assert.Equal(t, int64(2), *first.Quantity)
	assert.Empty(t, params.Discounts)
}
