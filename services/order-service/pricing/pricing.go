// Package pricing computes order and cart totals. All arithmetic is done in
// decimal and results are rounded to two places.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

const (
	DefaultCurrency       = "inr"
	DefaultDeliveryCharge = 100
	DefaultDiscountRate   = 0.2
)

var (
	ErrNoItems         = errors.New("at least one item is required")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrNegativePrice   = errors.New("price must not be negative")
)

// Rules are the storefront-wide pricing parameters.
type Rules struct {
	Currency       string
	DeliveryCharge decimal.Decimal
	DiscountRate   decimal.Decimal
}

func DefaultRules() Rules {
	return Rules{
		Currency:       DefaultCurrency,
		DeliveryCharge: decimal.NewFromInt(DefaultDeliveryCharge),
		DiscountRate:   decimal.NewFromFloat(DefaultDiscountRate),
	}
}

// Line is one priced item.
type Line struct {
	Price           decimal.Decimal
	DiscountedPrice decimal.Decimal
	Quantity        int64
}

// NewLine builds a Line from the float amounts the storefront sends.
func NewLine(price, discountedPrice float64, quantity int64) Line {
	return NormalizeItem(Line{
		Price:           decimal.NewFromFloat(price),
		DiscountedPrice: decimal.NewFromFloat(discountedPrice),
		Quantity:        quantity,
	})
}

// NormalizeItem defaults an absent or zero discounted price to the list price.
// Negative prices are left for Validate to reject.
func NormalizeItem(l Line) Line {
	if l.DiscountedPrice.IsZero() {
		l.DiscountedPrice = l.Price
	}
	return l
}

// UnitPrice is the price charged per unit, rounded to the two places the
// provider charges in.
func (l Line) UnitPrice() decimal.Decimal {
	return NormalizeItem(l).DiscountedPrice.Round(2)
}

type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	DeliveryCharge decimal.Decimal
	FinalAmount    decimal.Decimal
}

// Validate checks the lines before any totals are computed.
func Validate(lines []Line) error {
	if len(lines) == 0 {
		return ErrNoItems
	}
	for _, l := range lines {
		if l.Quantity < 1 {
			return ErrInvalidQuantity
		}
		if l.Price.IsNegative() || l.DiscountedPrice.IsNegative() {
			return ErrNegativePrice
		}
	}
	return nil
}

// Compute sums the rounded unit prices and applies the cart rule on top.
// FinalAmount always equals Subtotal - DiscountAmount + DeliveryCharge, and
// the subtotal is exactly the sum of what the provider charges per line.
func Compute(lines []Line, rules Rules) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice().Mul(decimal.NewFromInt(l.Quantity)))
	}

	delivery := rules.DeliveryCharge.Round(2)
	if subtotal.IsZero() {
		delivery = decimal.Zero
	}
	discount, final := CartTotal(subtotal, rules.DiscountRate, delivery)

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		DeliveryCharge: delivery,
		FinalAmount:    final,
	}
}

// CartTotal is the cart summary rule used by the storefront: a discount
// below 1 is a rate, anything else is a flat amount. An empty cart totals 0
// and is not charged for delivery.
func CartTotal(subtotal, discount, deliveryFee decimal.Decimal) (discountAmount, total decimal.Decimal) {
	if subtotal.IsZero() {
		return decimal.Zero, decimal.Zero
	}

	if discount.LessThan(decimal.NewFromInt(1)) {
		discountAmount = subtotal.Mul(discount)
	} else {
		discountAmount = discount
	}
	discountAmount = discountAmount.Round(2)

	return discountAmount, subtotal.Sub(discountAmount).Add(deliveryFee).Round(2)
}

// ToMinorUnits converts a major-unit amount to the provider's integer
// minor units (paise, cents).
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
