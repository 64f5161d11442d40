package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/storefront/services/order-service/services"
)

type CartController struct {
	cartService services.CartService
}

func NewCartController(cartService services.CartService) *CartController {
	return &CartController{cartService: cartService}
}

// cartRequest accepts "size" as an alias for "color".
type cartRequest struct {
	ItemID   string `json:"itemId"`
	Color    string `json:"color"`
	Size     string `json:"size"`
	Quantity *int64 `json:"quantity"`
}

func (r cartRequest) variant() string {
	if r.Color != "" {
		return r.Color
	}
	return r.Size
}

// AddToCart handles POST /api/cart/add.
func (cc *CartController) AddToCart(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req cartRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body")
		return
	}

	if se := cc.cartService.AddToCart(ctx.Request.Context(), userID, req.ItemID, req.variant()); se != nil {
		fail(ctx, se)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Added To Cart"})
}

// UpdateCart handles POST /api/cart/update.
func (cc *CartController) UpdateCart(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req cartRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		badRequest(ctx, "itemId, color and quantity are required")
		return
	}

	if se := cc.cartService.UpdateCart(ctx.Request.Context(), userID, req.ItemID, req.variant(), *req.Quantity); se != nil {
		fail(ctx, se)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Cart Updated"})
}

// GetCart handles POST /api/cart/get.
func (cc *CartController) GetCart(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cart, se := cc.cartService.GetCart(ctx.Request.Context(), userID)
	if se != nil {
		fail(ctx, se)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "cartData": cart})
}
