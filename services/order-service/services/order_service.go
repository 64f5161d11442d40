package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	aws_pkg "github.com/yashrajoria/storefront/pkg/aws"
	"github.com/yashrajoria/storefront/services/common/logger"
	"github.com/yashrajoria/storefront/services/order-service/models"
	"github.com/yashrajoria/storefront/services/order-service/pricing"
	"github.com/yashrajoria/storefront/services/order-service/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServiceError is a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string { return e.Message }

var (
	errOrderNotFound   = &ServiceError{StatusCode: http.StatusNotFound, Message: "Order not found"}
	errInvalidOrderID  = &ServiceError{StatusCode: http.StatusBadRequest, Message: "Invalid order id"}
	errCheckoutOffline = &ServiceError{StatusCode: http.StatusServiceUnavailable, Message: "Online payment is not available"}
	errInProgress      = &ServiceError{StatusCode: http.StatusConflict, Message: "A request with this Idempotency-Key is already in progress"}
)

func internalError(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusInternalServerError, Message: msg}
}

type PlaceOrderRequest struct {
	Items   []models.OrderItem `json:"items" validate:"required,min=1,dive"`
	Address models.Address     `json:"address"`

	// IdempotencyKey comes from the Idempotency-Key header.
	IdempotencyKey string `json:"-"`
}

type PlacementResult struct {
	OrderID    string `json:"orderId"`
	SessionURL string `json:"session_url,omitempty"`
	Replayed   bool   `json:"-"`
}

type VerifyResult struct {
	Success bool
	Message string
}

// OrderService defines the order business logic.
type OrderService interface {
	PlaceOrder(ctx context.Context, userID string, req *PlaceOrderRequest) (*PlacementResult, *ServiceError)
	PlaceStripeOrder(ctx context.Context, userID, origin string, req *PlaceOrderRequest) (*PlacementResult, *ServiceError)
	VerifyPayment(ctx context.Context, userID, orderID string, success bool) (*VerifyResult, *ServiceError)
	ApplyPaymentEvent(ctx context.Context, evt models.PaymentEvent) error
	ListAllOrders(ctx context.Context) ([]models.Order, *ServiceError)
	ListUserOrders(ctx context.Context, userID string) ([]models.Order, *ServiceError)
	UpdateStatus(ctx context.Context, orderID, status string) *ServiceError
}

// eventPublisher is satisfied by *aws_pkg.SNSClient; plain publishers fall
// back to Publish without the event_type attribute.
type eventPublisher interface {
	PublishEvent(ctx context.Context, topicArn, eventType string, message []byte) error
}

// OrderServiceDeps groups the collaborators of the order service. Checkout,
// Idempotency, SNS and Metrics are optional.
type OrderServiceDeps struct {
	Orders         repository.OrderRepository
	Users          repository.UserRepository
	Idempotency    repository.IdempotencyRepository
	Checkout       CheckoutProvider
	SNS            aws_pkg.SNSPublisher
	TopicArn       string
	Metrics        aws_pkg.MetricsRecorder
	Rules          pricing.Rules
	IdempotencyTTL time.Duration
	Logger         *zap.Logger
}

type orderServiceImpl struct {
	orders   repository.OrderRepository
	users    repository.UserRepository
	idem     repository.IdempotencyRepository
	checkout CheckoutProvider
	sns      aws_pkg.SNSPublisher
	topicArn string
	metrics  aws_pkg.MetricsRecorder
	rules    pricing.Rules
	idemTTL  time.Duration
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

func NewOrderService(deps OrderServiceDeps) OrderService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.IdempotencyTTL <= 0 {
		deps.IdempotencyTTL = 24 * time.Hour
	}
	if deps.Rules.Currency == "" {
		deps.Rules = pricing.DefaultRules()
	}
	return &orderServiceImpl{
		orders:   deps.Orders,
		users:    deps.Users,
		idem:     deps.Idempotency,
		checkout: deps.Checkout,
		sns:      deps.SNS,
		topicArn: deps.TopicArn,
		metrics:  deps.Metrics,
		rules:    deps.Rules,
		idemTTL:  deps.IdempotencyTTL,
		validate: validator.New(),
		logger:   deps.Logger,
		now:      time.Now,
	}
}

func (s *orderServiceImpl) log(ctx context.Context) *zap.Logger {
	if rid := logger.RequestID(ctx); rid != "" {
		return s.logger.With(zap.String("request_id", rid))
	}
	return s.logger
}

// PlaceOrder places a cash-on-delivery order and empties the user's cart.
func (s *orderServiceImpl) PlaceOrder(ctx context.Context, userID string, req *PlaceOrderRequest) (*PlacementResult, *ServiceError) {
	return s.place(ctx, userID, req, models.PaymentMethodCOD, "")
}

// PlaceStripeOrder persists an unpaid order and opens a hosted checkout
// session for it. The cart is emptied only once payment is verified.
func (s *orderServiceImpl) PlaceStripeOrder(ctx context.Context, userID, origin string, req *PlaceOrderRequest) (*PlacementResult, *ServiceError) {
	if s.checkout == nil {
		return nil, errCheckoutOffline
	}
	origin = strings.TrimSuffix(strings.TrimSpace(origin), "/")
	if origin == "" {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "Origin header is required"}
	}
	return s.place(ctx, userID, req, models.PaymentMethodStripe, origin)
}

func (s *orderServiceImpl) place(ctx context.Context, userID string, req *PlaceOrderRequest, method models.PaymentMethod, origin string) (*PlacementResult, *ServiceError) {
	if req == nil {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "Request body is required"}
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: validationMessage(err)}
	}

	lines := make([]pricing.Line, len(req.Items))
	for i, it := range req.Items {
		lines[i] = pricing.NewLine(it.Price, it.DiscountedPrice, it.Quantity)
	}
	if err := pricing.Validate(lines); err != nil {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: err.Error()}
	}

	idemKey := ""
	if req.IdempotencyKey != "" && s.idem != nil {
		idemKey = fmt.Sprintf("%s:%s:%s", method, userID, req.IdempotencyKey)
		if res, se, done := s.replay(ctx, idemKey); done {
			return res, se
		}
	}

	res, se := s.createOrder(ctx, userID, req, lines, method, origin)

	if idemKey != "" {
		s.settleIdempotency(ctx, idemKey, res, se)
	}
	return res, se
}

// replay reserves key, or returns the stored result of an earlier request.
// done is false when the caller should go ahead and place the order.
func (s *orderServiceImpl) replay(ctx context.Context, key string) (*PlacementResult, *ServiceError, bool) {
	ok, err := s.idem.Reserve(ctx, key, s.idemTTL)
	if err != nil {
		s.log(ctx).Warn("idempotency store unavailable, placing without it", zap.Error(err))
		return nil, nil, false
	}
	if ok {
		return nil, nil, false
	}

	stored, err := s.idem.Get(ctx, key)
	switch {
	case errors.Is(err, repository.ErrNotFound), err == nil && stored == "":
		return nil, errInProgress, true
	case err != nil:
		s.log(ctx).Error("idempotency lookup failed", zap.Error(err))
		return nil, internalError("Failed to place order"), true
	}

	var res PlacementResult
	if err := json.Unmarshal([]byte(stored), &res); err != nil {
		s.log(ctx).Error("corrupt idempotency record", zap.String("key", key), zap.Error(err))
		return nil, internalError("Failed to place order"), true
	}
	res.Replayed = true
	return &res, nil, true
}

func (s *orderServiceImpl) settleIdempotency(ctx context.Context, key string, res *PlacementResult, se *ServiceError) {
	if se != nil {
		if err := s.idem.Release(ctx, key); err != nil {
			s.log(ctx).Warn("failed to release idempotency key", zap.Error(err))
		}
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		s.log(ctx).Error("failed to marshal idempotency result", zap.Error(err))
		return
	}
	if err := s.idem.Complete(ctx, key, string(data), s.idemTTL); err != nil {
		s.log(ctx).Warn("failed to store idempotency result", zap.Error(err))
	}
}

func (s *orderServiceImpl) createOrder(ctx context.Context, userID string, req *PlaceOrderRequest, lines []pricing.Line, method models.PaymentMethod, origin string) (*PlacementResult, *ServiceError) {
	totals := pricing.Compute(lines, s.rules)

	items := make([]models.OrderItem, len(req.Items))
	for i, it := range req.Items {
		it.DiscountedPrice = lines[i].UnitPrice().InexactFloat64()
		items[i] = it
	}

	order := &models.Order{
		UserID:         userID,
		Items:          items,
		Address:        req.Address,
		Subtotal:       totals.Subtotal.InexactFloat64(),
		DiscountAmount: totals.DiscountAmount.InexactFloat64(),
		DeliveryCharge: totals.DeliveryCharge.InexactFloat64(),
		FinalAmount:    totals.FinalAmount.InexactFloat64(),
		Currency:       s.rules.Currency,
		PaymentMethod:  method,
		Payment:        false,
		Status:         models.StatusOrderPlaced,
		Date:           s.now().UnixMilli(),
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.log(ctx).Error("failed to create order", zap.String("user_id", userID), zap.Error(err))
		return nil, internalError("Failed to place order")
	}
	orderID := order.ID.Hex()
	s.count(ctx, aws_pkg.MetricOrdersCreated, method)

	if method == models.PaymentMethodCOD {
		if err := s.users.ClearCart(ctx, userID); err != nil {
			s.log(ctx).Warn("order placed but cart not cleared", zap.String("order_id", orderID), zap.Error(err))
		}
		s.publish(ctx, models.OrderEventPlaced, order)
		s.log(ctx).Info("order placed", zap.String("order_id", orderID), zap.String("payment_method", string(method)))
		return &PlacementResult{OrderID: orderID}, nil
	}

	sess, err := s.checkout.CreateSession(ctx, buildCheckoutRequest(order, lines, totals, origin))
	if err != nil {
		s.log(ctx).Error("checkout session creation failed", zap.String("order_id", orderID), zap.Error(err))
		s.dropOrder(ctx, orderID)
		return nil, &ServiceError{StatusCode: http.StatusBadGateway, Message: "Failed to create checkout session"}
	}

	if err := s.orders.SetCheckoutSession(ctx, orderID, sess.ID); err != nil {
		s.log(ctx).Error("failed to store checkout session", zap.String("order_id", orderID), zap.Error(err))
		s.dropOrder(ctx, orderID)
		return nil, internalError("Failed to place order")
	}
	order.CheckoutSessionID = sess.ID
	s.count(ctx, aws_pkg.MetricCheckoutSessions, method)
	s.publish(ctx, models.OrderEventPlaced, order)

	s.log(ctx).Info("checkout session created", zap.String("order_id", orderID), zap.String("session_id", sess.ID))
	return &PlacementResult{OrderID: orderID, SessionURL: sess.URL}, nil
}

func (s *orderServiceImpl) dropOrder(ctx context.Context, orderID string) {
	if err := s.orders.DeleteUnpaid(ctx, orderID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.log(ctx).Error("failed to delete orphaned order", zap.String("order_id", orderID), zap.Error(err))
		return
	}
	s.count(ctx, aws_pkg.MetricOrdersDeleted, models.PaymentMethodStripe)
}

func buildCheckoutRequest(order *models.Order, lines []pricing.Line, totals pricing.Totals, origin string) CheckoutRequest {
	orderID := order.ID.Hex()

	checkoutLines := make([]CheckoutLine, 0, len(lines)+1)
	for i, l := range lines {
		checkoutLines = append(checkoutLines, CheckoutLine{
			Name:       order.Items[i].Name,
			UnitAmount: pricing.ToMinorUnits(l.UnitPrice()),
			Quantity:   l.Quantity,
		})
	}
	checkoutLines = append(checkoutLines, CheckoutLine{
		Name:       "Delivery Charges",
		UnitAmount: pricing.ToMinorUnits(totals.DeliveryCharge),
		Quantity:   1,
	})

	return CheckoutRequest{
		OrderID:       orderID,
		UserID:        order.UserID,
		Currency:      order.Currency,
		SuccessURL:    fmt.Sprintf("%s/verify?success=true&orderId=%s", origin, orderID),
		CancelURL:     fmt.Sprintf("%s/verify?success=false&orderId=%s", origin, orderID),
		Lines:         checkoutLines,
		DiscountMinor: pricing.ToMinorUnits(totals.DiscountAmount),
	}
}

// VerifyPayment settles a Stripe order after the browser returns from
// checkout: paid orders are flagged and the cart emptied, abandoned orders
// are deleted.
func (s *orderServiceImpl) VerifyPayment(ctx context.Context, userID, orderID string, success bool) (*VerifyResult, *ServiceError) {
	order, se := s.loadOrder(ctx, orderID)
	if se != nil {
		return nil, se
	}
	if order.UserID != userID {
		return nil, errOrderNotFound
	}
	if order.PaymentMethod != models.PaymentMethodStripe {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "Order was not paid online"}
	}

	if success {
		return s.settlePaid(ctx, order, true)
	}
	return s.settleFailed(ctx, order)
}

// ApplyPaymentEvent applies a payment outcome reported by payment-service.
// Only errors worth retrying are returned.
func (s *orderServiceImpl) ApplyPaymentEvent(ctx context.Context, evt models.PaymentEvent) error {
	order, se := s.loadOrder(ctx, evt.OrderID)
	if se != nil {
		if se.StatusCode < http.StatusInternalServerError {
			s.log(ctx).Warn("payment event for unknown order", zap.String("order_id", evt.OrderID), zap.String("type", evt.Type))
			return nil
		}
		return se
	}
	if evt.SessionID != "" && order.CheckoutSessionID != "" && evt.SessionID != order.CheckoutSessionID {
		s.log(ctx).Warn("payment event session mismatch",
			zap.String("order_id", evt.OrderID),
			zap.String("event_session", evt.SessionID),
			zap.String("order_session", order.CheckoutSessionID))
		return nil
	}

	switch evt.Type {
	case models.PaymentEventSucceeded:
		_, se = s.settlePaid(ctx, order, false)
	case models.PaymentEventFailed:
		_, se = s.settleFailed(ctx, order)
	default:
		s.log(ctx).Debug("ignoring payment event", zap.String("type", evt.Type))
		return nil
	}

	if se != nil && se.StatusCode >= http.StatusInternalServerError {
		return se
	}
	return nil
}

// settlePaid marks the order paid. With confirm set, a claimed success is
// checked against the provider session first.
func (s *orderServiceImpl) settlePaid(ctx context.Context, order *models.Order, confirm bool) (*VerifyResult, *ServiceError) {
	orderID := order.ID.Hex()
	if order.Payment {
		return &VerifyResult{Success: true, Message: "Payment already verified"}, nil
	}

	if confirm && order.CheckoutSessionID != "" && s.checkout != nil {
		paid, err := s.checkout.IsSessionPaid(ctx, order.CheckoutSessionID)
		if err != nil {
			s.log(ctx).Error("could not confirm checkout session", zap.String("order_id", orderID), zap.Error(err))
			return nil, &ServiceError{StatusCode: http.StatusBadGateway, Message: "Could not confirm payment"}
		}
		if !paid {
			return &VerifyResult{Success: false, Message: "Payment has not been completed"}, nil
		}
	}

	if err := s.orders.MarkPaid(ctx, orderID); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyPaid):
			return &VerifyResult{Success: true, Message: "Payment already verified"}, nil
		case errors.Is(err, repository.ErrNotFound):
			return nil, errOrderNotFound
		}
		s.log(ctx).Error("failed to mark order paid", zap.String("order_id", orderID), zap.Error(err))
		return nil, internalError("Failed to verify payment")
	}
	order.Payment = true

	if err := s.users.ClearCart(ctx, order.UserID); err != nil {
		s.log(ctx).Warn("payment verified but cart not cleared", zap.String("order_id", orderID), zap.Error(err))
	}

	s.count(ctx, aws_pkg.MetricPaymentSucceeded, order.PaymentMethod)
	s.publish(ctx, models.OrderEventPaid, order)
	s.log(ctx).Info("payment verified", zap.String("order_id", orderID))
	return &VerifyResult{Success: true, Message: "Payment successful"}, nil
}

// settleFailed deletes an unpaid order. A paid order is never deleted.
func (s *orderServiceImpl) settleFailed(ctx context.Context, order *models.Order) (*VerifyResult, *ServiceError) {
	orderID := order.ID.Hex()
	if order.Payment {
		return &VerifyResult{Success: false, Message: "Order is already paid"}, nil
	}

	err := s.orders.DeleteUnpaid(ctx, orderID)
	switch {
	case errors.Is(err, repository.ErrAlreadyPaid):
		s.log(ctx).Info("order paid before it could be deleted", zap.String("order_id", orderID))
		return &VerifyResult{Success: false, Message: "Order is already paid"}, nil
	case errors.Is(err, repository.ErrNotFound):
		return &VerifyResult{Success: false, Message: "Payment failed"}, nil
	case err != nil:
		s.log(ctx).Error("failed to delete unpaid order", zap.String("order_id", orderID), zap.Error(err))
		return nil, internalError("Failed to verify payment")
	}

	s.count(ctx, aws_pkg.MetricPaymentFailed, order.PaymentMethod)
	s.count(ctx, aws_pkg.MetricOrdersDeleted, order.PaymentMethod)
	s.publish(ctx, models.OrderEventCancelled, order)
	s.log(ctx).Info("unpaid order deleted", zap.String("order_id", orderID))
	return &VerifyResult{Success: false, Message: "Payment failed"}, nil
}

func (s *orderServiceImpl) loadOrder(ctx context.Context, orderID string) (*models.Order, *ServiceError) {
	order, err := s.orders.FindByID(ctx, orderID)
	switch {
	case errors.Is(err, repository.ErrInvalidID):
		return nil, errInvalidOrderID
	case errors.Is(err, repository.ErrNotFound):
		return nil, errOrderNotFound
	case err != nil:
		s.log(ctx).Error("failed to load order", zap.String("order_id", orderID), zap.Error(err))
		return nil, internalError("Failed to load order")
	}
	return order, nil
}

// ListAllOrders returns every order for the admin panel.
func (s *orderServiceImpl) ListAllOrders(ctx context.Context) ([]models.Order, *ServiceError) {
	orders, err := s.orders.FindAll(ctx)
	if err != nil {
		s.log(ctx).Error("failed to fetch all orders", zap.Error(err))
		return nil, internalError("Failed to fetch orders")
	}
	return orders, nil
}

func (s *orderServiceImpl) ListUserOrders(ctx context.Context, userID string) ([]models.Order, *ServiceError) {
	orders, err := s.orders.FindByUserID(ctx, userID)
	if err != nil {
		s.log(ctx).Error("failed to fetch user orders", zap.String("user_id", userID), zap.Error(err))
		return nil, internalError("Failed to fetch orders")
	}
	return orders, nil
}

func (s *orderServiceImpl) UpdateStatus(ctx context.Context, orderID, status string) *ServiceError {
	if !models.IsValidStatus(status) {
		return &ServiceError{StatusCode: http.StatusBadRequest, Message: "Invalid status"}
	}

	err := s.orders.UpdateStatus(ctx, orderID, status)
	switch {
	case errors.Is(err, repository.ErrInvalidID):
		return errInvalidOrderID
	case errors.Is(err, repository.ErrNotFound):
		return errOrderNotFound
	case err != nil:
		s.log(ctx).Error("failed to update order status", zap.String("order_id", orderID), zap.Error(err))
		return internalError("Failed to update status")
	}

	oid, _ := primitive.ObjectIDFromHex(orderID)
	s.publish(ctx, models.OrderEventStatusUpdated, &models.Order{ID: oid, Status: status})
	return nil
}

// publish is best-effort; a failed publish never fails the request.
func (s *orderServiceImpl) publish(ctx context.Context, eventType string, order *models.Order) {
	if s.sns == nil || s.topicArn == "" {
		return
	}

	evt := models.OrderEvent{
		Type:          eventType,
		OrderID:       order.ID.Hex(),
		UserID:        order.UserID,
		PaymentMethod: order.PaymentMethod,
		FinalAmount:   order.FinalAmount,
		Currency:      order.Currency,
		Status:        order.Status,
		Timestamp:     s.now().UTC(),
	}
	data, err := json.Marshal(evt)
	if err != nil {
		s.log(ctx).Error("failed to marshal order event", zap.Error(err))
		return
	}

	if ep, ok := s.sns.(eventPublisher); ok {
		err = ep.PublishEvent(ctx, s.topicArn, eventType, data)
	} else {
		err = s.sns.Publish(ctx, s.topicArn, data)
	}
	if err != nil {
		s.log(ctx).Warn("SNS publish failed", zap.String("type", eventType), zap.Error(err))
	}
}

func (s *orderServiceImpl) count(ctx context.Context, metric string, method models.PaymentMethod) {
	if s.metrics == nil {
		return
	}
	dims := map[string]string{"Service": "order-service", "PaymentMethod": string(method)}
	go func() {
		mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = s.metrics.RecordCount(mctx, metric, dims)
	}()
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("%s failed on the '%s' rule", fe.Namespace(), fe.Tag())
	}
	return "Invalid request"
}
