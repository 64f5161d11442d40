package integration

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	aws_pkg "github.com/yashrajoria/storefront/pkg/aws"
	"github.com/yashrajoria/storefront/services/order-service/models"
)

// Runs only with RUN_LOCALSTACK_INTEGRATION=true against AWS_ENDPOINT
// (for example http://localhost:4566).
func TestOrderEventPublish_LocalStack(t *testing.T) {
	if os.Getenv("RUN_LOCALSTACK_INTEGRATION") != "true" {
		t.Skip("set RUN_LOCALSTACK_INTEGRATION=true to run")
	}
	topic := os.Getenv("ORDER_SNS_TOPIC_ARN")
	if topic == "" {
		t.Fatal("ORDER_SNS_TOPIC_ARN must be set for the integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	cfg, err := aws_pkg.LoadAWSConfig(ctx)
	require.NoError(t, err)

	evt, err := json.Marshal(models.OrderEvent{
		Type:          models.OrderEventPlaced,
		OrderID:       "665000000000000000000001",
		UserID:        "665000000000000000000002",
		PaymentMethod: models.PaymentMethodCOD,
		FinalAmount:   740,
		Currency:      "inr",
		Status:        models.StatusOrderPlaced,
		Timestamp:     time.Now().UTC(),
	})
	require.NoError(t, err)

	sns := aws_pkg.NewSNSClient(cfg)
	require.NoError(t, sns.PublishEvent(ctx, topic, models.OrderEventPlaced, evt))
}
