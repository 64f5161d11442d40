package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestOrder_FieldNames(t *testing.T) {
	order := Order{
		ID:             primitive.NewObjectID(),
		UserID:         "665000000000000000000002",
		Subtotal:       800,
		DiscountAmount: 160,
		DeliveryCharge: 100,
		FinalAmount:    740,
		PaymentMethod:  PaymentMethodStripe,
		Status:         StatusOrderPlaced,
	}

	raw, err := json.Marshal(order)
	require.NoError(t, err)
	var asJSON map[string]any
	require.NoError(t, json.Unmarshal(raw, &asJSON))

	raw, err = bson.Marshal(order)
	require.NoError(t, err)
	var asBSON bson.M
	require.NoError(t, bson.Unmarshal(raw, &asBSON))

	for _, key := range []string{"userId", "subtotal", "discountAmount", "deliveryCharge", "finalAmount", "paymentMethod", "payment", "status", "date"} {
		assert.Contains(t, asJSON, key)
		assert.Contains(t, asBSON, key)
	}
	assert.NotContains(t, asJSON, "amount")
	assert.Equal(t, 740.0, asJSON["finalAmount"])
	assert.Equal(t, 740.0, asBSON["finalAmount"])
}

func TestIsValidStatus(t *testing.T) {
	assert.True(t, IsValidStatus(StatusShipped))
	assert.False(t, IsValidStatus("Lost"))
}
