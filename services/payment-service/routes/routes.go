package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/storefront/services/common/auth"
	"github.com/yashrajoria/storefront/services/payment-service/controllers"
)

func RegisterPaymentRoutes(r *gin.Engine, pc *controllers.PaymentController, jwtSecret []byte) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "payment-service"})
	})

	// Stripe authenticates with the signature header, not a user token.
	r.POST("/stripe/webhook", pc.StripeWebhook)

	payments := r.Group("/payments")
	payments.Use(auth.Authenticate(jwtSecret))
	payments.GET("/order/:orderId", pc.GetOrderPayment)
}
