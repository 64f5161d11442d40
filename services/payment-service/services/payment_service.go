package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v80"
	aws_pkg "github.com/yashrajoria/storefront/pkg/aws"
	apperrors "github.com/yashrajoria/storefront/services/common/errors"
	"github.com/yashrajoria/storefront/services/common/logger"
	"github.com/yashrajoria/storefront/services/payment-service/models"
	"github.com/yashrajoria/storefront/services/payment-service/repository"
	"go.uber.org/zap"
)

var (
	errPaymentNotFound = apperrors.NotFound("Payment not found")
	errInvalidSession  = apperrors.BadRequest("Invalid checkout session payload")
	errPublishFailed   = apperrors.ErrPaymentFailed.Wrap(errors.New("payment event not published"))
)

// SessionLookup is satisfied by *StripeService.
type SessionLookup interface {
	SessionMetadata(sessionID string) (map[string]string, error)
}

type eventPublisher interface {
	PublishEvent(ctx context.Context, topicArn, eventType string, message []byte) error
}

type PaymentService interface {
	HandleEvent(ctx context.Context, event stripe.Event) error
	GetOrderPayment(ctx context.Context, orderID, userID string, isAdmin bool) (*models.Payment, error)
}

// PaymentServiceDeps groups the collaborators of the payment service.
// Sessions, SNS and Metrics are optional.
type PaymentServiceDeps struct {
	Payments repository.PaymentRepository
	Sessions SessionLookup
	SNS      aws_pkg.SNSPublisher
	TopicArn string
	Metrics  aws_pkg.MetricsRecorder
	Logger   *zap.Logger
}

type paymentServiceImpl struct {
	payments repository.PaymentRepository
	sessions SessionLookup
	sns      aws_pkg.SNSPublisher
	topicArn string
	metrics  aws_pkg.MetricsRecorder
	logger   *zap.Logger
	now      func() time.Time
}

func NewPaymentService(deps PaymentServiceDeps) PaymentService {
	l := deps.Logger
	if l == nil {
		l = zap.NewNop()
	}
	return &paymentServiceImpl{
		payments: deps.Payments,
		sessions: deps.Sessions,
		sns:      deps.SNS,
		topicArn: deps.TopicArn,
		metrics:  deps.Metrics,
		logger:   l,
		now:      time.Now,
	}
}

func (s *paymentServiceImpl) log(ctx context.Context) *zap.Logger {
	if rid := logger.RequestID(ctx); rid != "" {
		return s.logger.With(zap.String("request_id", rid))
	}
	return s.logger
}

var trackedEvents = map[stripe.EventType]bool{
	stripe.EventTypeCheckoutSessionCompleted:             true,
	stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded: true,
	stripe.EventTypeCheckoutSessionAsyncPaymentFailed:    true,
	stripe.EventTypeCheckoutSessionExpired:               true,
}

// statusFor maps a tracked checkout session event to a ledger status.
func statusFor(eventType stripe.EventType, sess *stripe.CheckoutSession) string {
	switch eventType {
	case stripe.EventTypeCheckoutSessionCompleted:
		if sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
			// delayed payment methods settle through async_payment_* later
			return models.PaymentStatusPending
		}
		return models.PaymentStatusSucceeded
	case stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		return models.PaymentStatusSucceeded
	}
	return models.PaymentStatusFailed
}

// HandleEvent records a verified Stripe event in the ledger and publishes a
// PaymentEvent when the row reaches a terminal status. A non-nil error
// makes Stripe redeliver the event.
func (s *paymentServiceImpl) HandleEvent(ctx context.Context, event stripe.Event) error {
	log := s.log(ctx).With(zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))

	if !trackedEvents[event.Type] {
		log.Info("Unhandled webhook event type")
		return nil
	}
	if event.Data == nil {
		return errInvalidSession
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		log.Warn("Failed to unmarshal checkout session", zap.Error(err))
		return errInvalidSession
	}
	status := statusFor(event.Type, &sess)
	if sess.ID == "" {
		return errInvalidSession
	}

	metadata := sess.Metadata
	if metadata["order_id"] == "" && s.sessions != nil {
		if m, err := s.sessions.SessionMetadata(sess.ID); err != nil {
			log.Warn("Failed to fetch session metadata", zap.String("session_id", sess.ID), zap.Error(err))
		} else {
			metadata = m
		}
	}
	orderID, userID := metadata["order_id"], metadata["user_id"]
	if orderID == "" {
		log.Warn("Missing order_id in checkout session metadata", zap.String("session_id", sess.ID))
		return nil
	}

	now := s.now()
	p := &models.Payment{
		OrderID:       orderID,
		UserID:        userID,
		SessionID:     sess.ID,
		Amount:        sess.AmountTotal,
		Currency:      string(sess.Currency),
		Status:        status,
		StripeEventID: event.ID,
	}
	switch status {
	case models.PaymentStatusSucceeded:
		p.SucceededAt = &now
	case models.PaymentStatusFailed:
		p.FailedAt = &now
	}

	stored, err := s.payments.RecordTransition(ctx, p)
	if err != nil {
		log.Error("Failed to record payment transition", zap.String("session_id", sess.ID), zap.Error(err))
		return apperrors.ErrDatabaseQuery.Wrap(err)
	}
	if stored.Status != status {
		log.Info("Skipping webhook for settled payment",
			zap.String("payment_id", stored.ID.String()),
			zap.String("status", stored.Status))
		return nil
	}
	if !models.IsTerminal(stored.Status) || stored.PublishedAt != nil {
		return nil
	}

	if stored.StripeEventID == event.ID {
		if stored.Status == models.PaymentStatusSucceeded {
			s.count(ctx, aws_pkg.MetricPaymentSucceeded)
		} else {
			s.count(ctx, aws_pkg.MetricPaymentFailed)
		}
	}
	return s.publish(ctx, stored)
}

// publish sends the PaymentEvent for a terminal row and stamps it as
// published. Redelivered webhooks retry rows that were never stamped.
func (s *paymentServiceImpl) publish(ctx context.Context, p *models.Payment) error {
	if s.sns == nil || s.topicArn == "" {
		return nil
	}
	evt := models.PaymentEvent{
		Type:      models.EventTypeFor(p.Status),
		OrderID:   p.OrderID,
		UserID:    p.UserID,
		PaymentID: p.ID.String(),
		SessionID: p.SessionID,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Timestamp: s.now().UTC(),
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return apperrors.Internal("Failed to encode payment event", err)
	}

	if ep, ok := s.sns.(eventPublisher); ok {
		err = ep.PublishEvent(ctx, s.topicArn, evt.Type, payload)
	} else {
		err = s.sns.Publish(ctx, s.topicArn, payload)
	}
	if err != nil {
		s.log(ctx).Error("Failed to publish payment event to SNS",
			zap.String("event_type", evt.Type),
			zap.String("order_id", evt.OrderID),
			zap.Error(err))
		return errPublishFailed
	}

	if err := s.payments.MarkPublished(ctx, p.ID, s.now()); err != nil {
		s.log(ctx).Warn("Failed to mark payment event published", zap.String("payment_id", p.ID.String()), zap.Error(err))
	}
	s.log(ctx).Info("Payment event published to SNS",
		zap.String("event_type", evt.Type),
		zap.String("order_id", evt.OrderID))
	return nil
}

func (s *paymentServiceImpl) count(ctx context.Context, metric string) {
	if s.metrics == nil {
		return
	}
	go func() {
		mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = s.metrics.RecordCount(mctx, metric, map[string]string{"Service": "payment-service"})
	}()
}

// GetOrderPayment returns the latest ledger row for an order. Non-admin
// callers only see their own payments.
func (s *paymentServiceImpl) GetOrderPayment(ctx context.Context, orderID, userID string, isAdmin bool) (*models.Payment, error) {
	if orderID == "" {
		return nil, apperrors.BadRequest("Order id is required")
	}
	p, err := s.payments.FindByOrderID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errPaymentNotFound
	}
	if err != nil {
		s.log(ctx).Error("Failed to load payment", zap.String("order_id", orderID), zap.Error(err))
		return nil, apperrors.ErrDatabaseQuery.Wrap(err)
	}
	if !isAdmin && p.UserID != userID {
		return nil, errPaymentNotFound
	}
	return p, nil
}
