package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNormalizeItem_DefaultsDiscountedPrice(t *testing.T) {
	l := NewLine(250, 0, 1)
	assert.Equal(t, "250.00", l.DiscountedPrice.StringFixed(2))

	l = NewLine(250, 199.5, 1)
	assert.Equal(t, "199.50", l.DiscountedPrice.StringFixed(2))

	l = NewLine(250, -1, 1)
	assert.True(t, l.DiscountedPrice.IsNegative())
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name                                string
		lines                               []Line
		subtotal, discount, delivery, final string
	}{
		{
			name:     "single discounted line",
			lines:    []Line{NewLine(500, 400, 2)},
			subtotal: "800.00", discount: "160.00", delivery: "100.00", final: "740.00",
		},
		{
			name:     "mixed lines",
			lines:    []Line{NewLine(500, 400, 2), NewLine(1000, 0, 1)},
			subtotal: "1800.00", discount: "360.00", delivery: "100.00", final: "1540.00",
		},
		{
			name:     "fractional prices round to two places",
			lines:    []Line{NewLine(33.33, 0, 3)},
			subtotal: "99.99", discount: "20.00", delivery: "100.00", final: "179.99",
		},
		{
			name:     "sub-cent unit price rounds before quantity",
			lines:    []Line{NewLine(10.333, 0, 3)},
			subtotal: "30.99", discount: "6.20", delivery: "100.00", final: "124.79",
		},
		{
			name:     "free items are not charged for delivery",
			lines:    []Line{NewLine(0, 0, 2)},
			subtotal: "0.00", discount: "0.00", delivery: "0.00", final: "0.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.lines, DefaultRules())
			assert.Equal(t, tt.subtotal, got.Subtotal.StringFixed(2))
			assert.Equal(t, tt.discount, got.DiscountAmount.StringFixed(2))
			assert.Equal(t, tt.delivery, got.DeliveryCharge.StringFixed(2))
			assert.Equal(t, tt.final, got.FinalAmount.StringFixed(2))
			assert.True(t, got.FinalAmount.Equal(got.Subtotal.Sub(got.DiscountAmount).Add(got.DeliveryCharge)))
		})
	}
}

func TestCompute_MatchesProviderLines(t *testing.T) {
	rules := DefaultRules()
	cases := [][]Line{
		{NewLine(10.333, 0, 3)},
		{NewLine(19.995, 0, 7), NewLine(0.125, 0, 9)},
		{NewLine(500, 399.999, 2), NewLine(1000, 0, 1)},
	}

	for _, lines := range cases {
		totals := Compute(lines, rules)

		var charged int64
		for _, l := range lines {
			charged += ToMinorUnits(l.UnitPrice()) * l.Quantity
		}
		charged += ToMinorUnits(totals.DeliveryCharge)
		charged -= ToMinorUnits(totals.DiscountAmount)

		assert.Equal(t, ToMinorUnits(totals.FinalAmount), charged)
	}
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Validate(nil), ErrNoItems)
	assert.ErrorIs(t, Validate([]Line{NewLine(10, 0, 0)}), ErrInvalidQuantity)
	assert.ErrorIs(t, Validate([]Line{NewLine(-1, 0, 1)}), ErrNegativePrice)
	assert.ErrorIs(t, Validate([]Line{NewLine(10, -5, 1)}), ErrNegativePrice)
	assert.NoError(t, Validate([]Line{NewLine(10, 8, 1)}))
}

func TestCartTotal(t *testing.T) {
	tests := []struct {
		name                  string
		subtotal, discount    string
		wantDiscount, wantTot string
	}{
		{"rate discount", "1000", "0.2", "200.00", "900.00"},
		{"flat discount", "1000", "50", "50.00", "1050.00"},
		{"empty cart", "0", "0.2", "0.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			disc, total := CartTotal(d(tt.subtotal), d(tt.discount), d("100"))
			assert.Equal(t, tt.wantDiscount, disc.StringFixed(2))
			assert.Equal(t, tt.wantTot, total.StringFixed(2))
		})
	}
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(10000), ToMinorUnits(d("100")))
	assert.Equal(t, int64(39950), ToMinorUnits(d("399.5")))
	assert.Equal(t, int64(40000), ToMinorUnits(d("399.995")))
	assert.Equal(t, int64(1), ToMinorUnits(d("0.005")))
}
