package controllers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/webhook"
	"github.com/yashrajoria/storefront/services/common/auth"
	apperrors "github.com/yashrajoria/storefront/services/common/errors"
	"github.com/yashrajoria/storefront/services/payment-service/controllers"
	"github.com/yashrajoria/storefront/services/payment-service/models"
	"github.com/yashrajoria/storefront/services/payment-service/services"
)

const webhookSecret = "whsec_controller_test"

type mockPaymentService struct {
	handled   []stripe.Event
	handleErr error
	payment   *models.Payment
	gotAdmin  bool
	gotUser   string
}

func (m *mockPaymentService) HandleEvent(_ context.Context, event stripe.Event) error {
	m.handled = append(m.handled, event)
	return m.handleErr
}

func (m *mockPaymentService) GetOrderPayment(_ context.Context, _, userID string, isAdmin bool) (*models.Payment, error) {
	m.gotUser, m.gotAdmin = userID, isAdmin
	if m.payment == nil {
		return nil, apperrors.NotFound("Payment not found")
	}
	return m.payment, nil
}

func init() { gin.SetMode(gin.TestMode) }

func setupRouter(svc *mockPaymentService, role string) *gin.Engine {
	r := gin.New()
	pc := controllers.NewPaymentController(svc, services.NewStripeService("", webhookSecret))
	r.POST("/stripe/webhook", pc.StripeWebhook)
	r.GET("/payments/order/:orderId", func(c *gin.Context) {
		c.Set(auth.UserContextKey, "user-1")
		c.Set(auth.RoleContextKey, role)
		c.Next()
	}, pc.GetOrderPayment)
	return r
}

func postWebhook(r http.Handler, payload, signature string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodPost, "/stripe/webhook", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func signed(payload string) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    webhookSecret,
		Timestamp: time.Now(),
	}).Header
}

const expiredEvent = `{"id":"evt_9","object":"event","type":"checkout.session.expired",` +
	`"data":{"object":{"id":"cs_9","object":"checkout.session","metadata":{"order_id":"665000000000000000000009"}}}}`

func TestStripeWebhook_Accepted(t *testing.T) {
	svc := &mockPaymentService{}
	r := setupRouter(svc, "")

	w, resp := postWebhook(r, expiredEvent, signed(expiredEvent))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["received"])
	require.Len(t, svc.handled, 1)
	assert.Equal(t, stripe.EventTypeCheckoutSessionExpired, svc.handled[0].Type)
}

func TestStripeWebhook_BadSignature(t *testing.T) {
	svc := &mockPaymentService{}
	r := setupRouter(svc, "")

	w, resp := postWebhook(r, expiredEvent, "t=1,v1=deadbeef")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["success"])
	assert.Empty(t, svc.handled)
}

func TestStripeWebhook_ServiceErrorAsksForRetry(t *testing.T) {
	svc := &mockPaymentService{handleErr: apperrors.ErrDatabaseQuery}
	r := setupRouter(svc, "")

	w, resp := postWebhook(r, expiredEvent, signed(expiredEvent))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Database query error", resp["message"])
}

func TestGetOrderPayment(t *testing.T) {
	svc := &mockPaymentService{payment: &models.Payment{
		OrderID: "665000000000000000000009", UserID: "user-1", SessionID: "cs_9", Status: models.PaymentStatusSucceeded,
	}}
	r := setupRouter(svc, auth.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/payments/order/665000000000000000000009", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.gotAdmin)
	assert.Equal(t, "user-1", svc.gotUser)

	var resp struct {
		Success bool           `json:"success"`
		Payment models.Payment `json:"payment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "cs_9", resp.Payment.SessionID)
}

func TestGetOrderPayment_NotFound(t *testing.T) {
	r := setupRouter(&mockPaymentService{}, "")

	req := httptest.NewRequest(http.MethodGet, "/payments/order/665000000000000000000009", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
