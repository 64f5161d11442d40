package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v80"
	"github.com/yashrajoria/storefront/services/payment-service/controllers"
	"github.com/yashrajoria/storefront/services/payment-service/models"
	"github.com/yashrajoria/storefront/services/payment-service/services"
)

type stubPayments struct{}

func (stubPayments) HandleEvent(context.Context, stripe.Event) error { return nil }

func (stubPayments) GetOrderPayment(context.Context, string, string, bool) (*models.Payment, error) {
	return &models.Payment{}, nil
}

func TestRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterPaymentRoutes(r,
		controllers.NewPaymentController(stubPayments{}, services.NewStripeService("", "whsec_x")),
		[]byte("test-secret"))

	tests := []struct {
		name   string
		method string
		path   string
		code   int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"ledger lookup needs a token", http.MethodGet, "/payments/order/665000000000000000000001", http.StatusUnauthorized},
		{"webhook needs a signature", http.MethodPost, "/stripe/webhook", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.code, w.Code)
		})
	}
}
