package controllers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/storefront/services/common/auth"
	"github.com/yashrajoria/storefront/services/common/logger"
	"github.com/yashrajoria/storefront/services/order-service/services"
	"go.uber.org/zap"
)

type OrderController struct {
	orderService services.OrderService
}

func NewOrderController(orderService services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

func fail(ctx *gin.Context, se *services.ServiceError) {
	logger.FromContext(ctx).Warn("request failed",
		zap.Int("status", se.StatusCode),
		zap.String("message", se.Message),
		zap.String("path", ctx.FullPath()))
	ctx.AbortWithStatusJSON(se.StatusCode, gin.H{"success": false, "message": se.Message})
}

func badRequest(ctx *gin.Context, msg string) {
	fail(ctx, &services.ServiceError{StatusCode: http.StatusBadRequest, Message: msg})
}

func currentUser(ctx *gin.Context) (string, bool) {
	userID, err := auth.GetUserID(ctx)
	if err != nil {
		fail(ctx, &services.ServiceError{StatusCode: http.StatusUnauthorized, Message: "Not Authorized Login Again"})
		return "", false
	}
	return userID, true
}

// flag accepts JSON true/false and the strings "true"/"false" that the
// storefront copies out of the redirect URL.
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	*f = flag(bytes.Equal(bytes.Trim(b, `"`), []byte("true")))
	return nil
}

// PlaceOrder handles POST /api/order/place (cash on delivery).
func (oc *OrderController) PlaceOrder(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req services.PlaceOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body")
		return
	}
	req.IdempotencyKey = ctx.GetHeader("Idempotency-Key")

	res, se := oc.orderService.PlaceOrder(ctx.Request.Context(), userID, &req)
	if se != nil {
		fail(ctx, se)
		return
	}

	markReplay(ctx, res)
	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Order Placed", "orderId": res.OrderID})
}

// PlaceOrderStripe handles POST /api/order/stripe.
func (oc *OrderController) PlaceOrderStripe(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req services.PlaceOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body")
		return
	}
	req.IdempotencyKey = ctx.GetHeader("Idempotency-Key")

	res, se := oc.orderService.PlaceStripeOrder(ctx.Request.Context(), userID, ctx.GetHeader("Origin"), &req)
	if se != nil {
		fail(ctx, se)
		return
	}

	markReplay(ctx, res)
	ctx.JSON(http.StatusOK, gin.H{"success": true, "session_url": res.SessionURL, "orderId": res.OrderID})
}

func markReplay(ctx *gin.Context, res *services.PlacementResult) {
	if res.Replayed {
		ctx.Header("Idempotent-Replayed", "true")
	}
}

type verifyStripeRequest struct {
	OrderID string `json:"orderId"`
	Success flag   `json:"success"`
}

// VerifyStripe handles POST /api/order/verifyStripe.
func (oc *OrderController) VerifyStripe(ctx *gin.Context) {
	var req verifyStripeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.OrderID == "" {
		badRequest(ctx, "orderId is required")
		return
	}
	oc.verify(ctx, req.OrderID, bool(req.Success))
}

type verifyTxnRequest struct {
	TxnID  string `json:"txnid"`
	Status string `json:"status"`
}

// Verify handles POST /api/order/verify and /api/order/verifyPayU, the
// {txnid, status} form posted by the storefront's verify page.
func (oc *OrderController) Verify(ctx *gin.Context) {
	var req verifyTxnRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.TxnID == "" {
		badRequest(ctx, "txnid is required")
		return
	}
	if req.Status != "success" && req.Status != "failure" {
		badRequest(ctx, "status must be success or failure")
		return
	}
	oc.verify(ctx, req.TxnID, req.Status == "success")
}

func (oc *OrderController) verify(ctx *gin.Context, orderID string, success bool) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	res, se := oc.orderService.VerifyPayment(ctx.Request.Context(), userID, orderID, success)
	if se != nil {
		fail(ctx, se)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": res.Success, "message": res.Message})
}

// UserOrders handles POST /api/order/userorders.
func (oc *OrderController) UserOrders(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	orders, se := oc.orderService.ListUserOrders(ctx.Request.Context(), userID)
	if se != nil {
		fail(ctx, se)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

// AllOrders handles POST /api/order/list (admin).
func (oc *OrderController) AllOrders(ctx *gin.Context) {
	orders, se := oc.orderService.ListAllOrders(ctx.Request.Context())
	if se != nil {
		fail(ctx, se)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

type updateStatusRequest struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// UpdateStatus handles POST /api/order/status (admin).
func (oc *OrderController) UpdateStatus(ctx *gin.Context) {
	var req updateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.OrderID == "" || req.Status == "" {
		badRequest(ctx, "orderId and status are required")
		return
	}

	if se := oc.orderService.UpdateStatus(ctx.Request.Context(), req.OrderID, req.Status); se != nil {
		fail(ctx, se)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Status Updated"})
}
