package services

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/coupon"
)

// ErrCheckoutDisabled is returned when no provider key is configured.
var ErrCheckoutDisabled = errors.New("online checkout is not configured")

// CheckoutLine is one provider line item in minor units.
type CheckoutLine struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

type CheckoutRequest struct {
	OrderID       string
	UserID        string
	Currency      string
	SuccessURL    string
	CancelURL     string
	Lines         []CheckoutLine
	DiscountMinor int64
}

type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutProvider creates hosted checkout sessions and reports whether a
// session has been paid.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	IsSessionPaid(ctx context.Context, sessionID string) (bool, error)
}

type StripeCheckout struct{}

func NewStripeCheckout(secretKey string) *StripeCheckout {
	stripe.Key = secretKey
	return &StripeCheckout{}
}

func (s *StripeCheckout) CreateSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := buildSessionParams(req)
	params.Context = ctx

	if req.DiscountMinor > 0 {
		cp := &stripe.CouponParams{
			AmountOff:      stripe.Int64(req.DiscountMinor),
			Currency:       stripe.String(req.Currency),
			Duration:       stripe.String(string(stripe.CouponDurationOnce)),
			MaxRedemptions: stripe.Int64(1),
			Name:           stripe.String("Order discount"),
		}
		cp.Context = ctx
		cp.AddMetadata("order_id", req.OrderID)

		c, err := coupon.New(cp)
		if err != nil {
			return nil, err
		}
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{{Coupon: stripe.String(c.ID)}}
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, err
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (s *StripeCheckout) IsSessionPaid(ctx context.Context, sessionID string) (bool, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := session.Get(sessionID, params)
	if err != nil {
		return false, err
	}
	return sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired, nil
}

func buildSessionParams(req CheckoutRequest) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Lines))
	for _, l := range req.Lines {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(req.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(l.Name),
				},
				UnitAmount: stripe.Int64(l.UnitAmount),
			},
			Quantity: stripe.Int64(l.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.OrderID),
		LineItems:         lineItems,
	}
	params.AddMetadata("order_id", req.OrderID)
	params.AddMetadata("user_id", req.UserID)
	return params
}
