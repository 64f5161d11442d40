package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/storefront/api-gateway/utils"
)

// RegisterAllRoutes maps storefront paths to their backends. Authentication
// stays with the services, which share the JWT secret.
func RegisterAllRoutes(r *gin.Engine, orders, payments *utils.Forwarder) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "api-gateway"})
	})

	r.Any("/api/order/*any", orders.Handle)
	r.Any("/api/cart/*any", orders.Handle)

	r.Any("/payments/*any", payments.Handle)
	r.POST("/stripe/webhook", payments.Handle)
}
