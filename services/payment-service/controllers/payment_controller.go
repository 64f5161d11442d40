package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v80"
	"github.com/yashrajoria/storefront/services/common/auth"
	apperrors "github.com/yashrajoria/storefront/services/common/errors"
	"github.com/yashrajoria/storefront/services/common/logger"
	"github.com/yashrajoria/storefront/services/payment-service/services"
	"go.uber.org/zap"
)

// Stripe caps webhook payloads well below this.
const maxWebhookBody = 64 << 10

// WebhookParser is satisfied by *services.StripeService.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (stripe.Event, error)
}

type PaymentController struct {
	payments services.PaymentService
	webhooks WebhookParser
}

func NewPaymentController(payments services.PaymentService, webhooks WebhookParser) *PaymentController {
	return &PaymentController{payments: payments, webhooks: webhooks}
}

// respondError logs the failure and writes the {success:false, message} envelope.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.As(err)
	log := logger.FromContext(c.Request.Context())
	if appErr.Code >= http.StatusInternalServerError {
		log.Error(appErr.Message, zap.String("path", c.FullPath()), zap.Error(appErr.Err))
	} else {
		log.Warn(appErr.Message, zap.String("path", c.FullPath()))
	}
	apperrors.Fail(c, appErr)
}

// StripeWebhook handles POST /stripe/webhook.
func (pc *PaymentController) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		respondError(c, apperrors.BadRequest("Unreadable webhook body"))
		return
	}

	event, err := pc.webhooks.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		respondError(c, apperrors.BadRequest("Invalid webhook signature"))
		return
	}

	logger.FromContext(c.Request.Context()).Info("Processing Stripe webhook",
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID))

	if err := pc.payments.HandleEvent(c.Request.Context(), event); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// GetOrderPayment handles GET /payments/order/:orderId.
func (pc *PaymentController) GetOrderPayment(c *gin.Context) {
	userID, err := auth.GetUserID(c)
	if err != nil {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}
	isAdmin := c.GetString(auth.RoleContextKey) == auth.RoleAdmin

	p, err := pc.payments.GetOrderPayment(c.Request.Context(), c.Param("orderId"), userID, isAdmin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "payment": p})
}
