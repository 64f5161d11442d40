package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "COD"
	PaymentMethodStripe PaymentMethod = "Stripe"
)

// Fulfilment statuses an admin may move an order through.
const (
	StatusOrderPlaced    = "Order Placed"
	StatusPacking        = "Packing"
	StatusShipped        = "Shipped"
	StatusOutForDelivery = "Out for delivery"
	StatusDelivered      = "Delivered"
)

var validStatuses = map[string]struct{}{
	StatusOrderPlaced:    {},
	StatusPacking:        {},
	StatusShipped:        {},
	StatusOutForDelivery: {},
	StatusDelivered:      {},
}

// IsValidStatus reports whether s is a known fulfilment status.
func IsValidStatus(s string) bool {
	_, ok := validStatuses[s]
	return ok
}

// OrderItem is a line of an order as sent by the storefront. Image is kept
// as whatever the client sent (a URL or a list of URLs).
type OrderItem struct {
	ProductID       string  `bson:"productId" json:"productId" validate:"required"`
	Name            string  `bson:"name" json:"name" validate:"required"`
	Price           float64 `bson:"price" json:"price" validate:"gte=0"`
	DiscountedPrice float64 `bson:"discountedPrice,omitempty" json:"discountedPrice,omitempty" validate:"gte=0"`
	Quantity        int64   `bson:"quantity" json:"quantity" validate:"gte=1"`
	Color           string  `bson:"color,omitempty" json:"color,omitempty"`
	Image           any     `bson:"image,omitempty" json:"image,omitempty"`
}

type Address struct {
	FirstName string `bson:"firstName" json:"firstName"`
	LastName  string `bson:"lastName" json:"lastName"`
	Email     string `bson:"email" json:"email" validate:"omitempty,email"`
	Street    string `bson:"street" json:"street"`
	City      string `bson:"city" json:"city"`
	State     string `bson:"state" json:"state"`
	Zipcode   string `bson:"zipcode" json:"zipcode"`
	Country   string `bson:"country" json:"country"`
	Phone     string `bson:"phone" json:"phone"`
}

// Order is stored in the "orders" collection. Amounts are in major currency
// units; Date is milliseconds since the epoch.
type Order struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID            string             `bson:"userId" json:"userId"`
	Items             []OrderItem        `bson:"items" json:"items"`
	Address           Address            `bson:"address" json:"address"`
	Subtotal          float64            `bson:"subtotal" json:"subtotal"`
	DiscountAmount    float64            `bson:"discountAmount" json:"discountAmount"`
	DeliveryCharge    float64            `bson:"deliveryCharge" json:"deliveryCharge"`
	FinalAmount       float64            `bson:"finalAmount" json:"finalAmount"`
	Currency          string             `bson:"currency" json:"currency"`
	PaymentMethod     PaymentMethod      `bson:"paymentMethod" json:"paymentMethod"`
	Payment           bool               `bson:"payment" json:"payment"`
	Status            string             `bson:"status" json:"status"`
	Date              int64              `bson:"date" json:"date"`
	CheckoutSessionID string             `bson:"checkoutSessionId,omitempty" json:"checkoutSessionId,omitempty"`
}

// CartData maps product ID to colour to quantity.
type CartData map[string]map[string]int64

// User is the subset of the "users" document this service reads.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	CartData CartData           `bson:"cartData" json:"cartData"`
}
