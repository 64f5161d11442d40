package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/storefront/services/common/auth"
	"github.com/yashrajoria/storefront/services/order-service/controllers"
)

func RegisterRoutes(r *gin.Engine, oc *controllers.OrderController, cc *controllers.CartController, jwtSecret []byte) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "order-service"})
	})

	authed := auth.Authenticate(jwtSecret)

	order := r.Group("/api/order")
	order.Use(authed)
	order.POST("/place", oc.PlaceOrder)
	order.POST("/stripe", oc.PlaceOrderStripe)
	order.POST("/verifyStripe", oc.VerifyStripe)
	order.POST("/verify", oc.Verify)
	order.POST("/verifyPayU", oc.Verify)
	order.POST("/userorders", oc.UserOrders)

	admin := order.Group("")
	admin.Use(auth.AdminOnly())
	admin.POST("/list", oc.AllOrders)
	admin.POST("/status", oc.UpdateStatus)

	cart := r.Group("/api/cart")
	cart.Use(authed)
	cart.POST("/get", cc.GetCart)
	cart.POST("/add", cc.AddToCart)
	cart.POST("/update", cc.UpdateCart)
}
