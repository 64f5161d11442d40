package services

import (
	"context"
	"encoding/json"
	"errors"

	aws_pkg "github.com/yashrajoria/storefront/pkg/aws"
	"github.com/yashrajoria/storefront/services/order-service/models"
	"go.uber.org/zap"
)

// PaymentEventApplier is the part of OrderService the consumer drives.
type PaymentEventApplier interface {
	ApplyPaymentEvent(ctx context.Context, evt models.PaymentEvent) error
}

// SQSPaymentConsumer feeds payment events from SQS into the order service.
type SQSPaymentConsumer struct {
	sqsConsumer *aws_pkg.SQSConsumer
	applier     PaymentEventApplier
	metrics     aws_pkg.MetricsRecorder
	logger      *zap.Logger
}

func NewSQSPaymentConsumer(sqsConsumer *aws_pkg.SQSConsumer, applier PaymentEventApplier, metrics aws_pkg.MetricsRecorder, logger *zap.Logger) *SQSPaymentConsumer {
	return &SQSPaymentConsumer{
		sqsConsumer: sqsConsumer,
		applier:     applier,
		metrics:     metrics,
		logger:      logger,
	}
}

// Start polls until ctx is cancelled.
func (c *SQSPaymentConsumer) Start(ctx context.Context) {
	c.logger.Info("starting payment events consumer")

	err := c.sqsConsumer.StartPolling(ctx, c.HandleMessage)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Error("payment events polling stopped", zap.Error(err))
	}
}

// HandleMessage returns an error only when the message should be redelivered.
func (c *SQSPaymentConsumer) HandleMessage(ctx context.Context, body string) error {
	body = aws_pkg.UnwrapSNSEnvelope(body)

	var evt models.PaymentEvent
	if err := json.Unmarshal([]byte(body), &evt); err != nil {
		c.logger.Warn("dropping malformed payment event", zap.Error(err), zap.String("payload", body))
		return nil
	}
	if evt.OrderID == "" || evt.Type == "" {
		c.logger.Warn("dropping payment event with missing fields",
			zap.String("order_id", evt.OrderID), zap.String("type", evt.Type))
		return nil
	}

	c.logger.Info("payment event received", zap.String("order_id", evt.OrderID), zap.String("type", evt.Type))
	if err := c.applier.ApplyPaymentEvent(ctx, evt); err != nil {
		return err
	}

	if c.metrics != nil {
		_ = c.metrics.RecordCount(ctx, aws_pkg.MetricSQSMessages, map[string]string{
			"Service": "order-service",
			"Type":    evt.Type,
		})
	}
	return nil
}
