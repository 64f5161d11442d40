package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSPublisher is a minimal interface for publishing messages to SNS.
type SNSPublisher interface {
	Publish(ctx context.Context, topicArn string, message []byte) error
}

type SNSClient struct {
	client *sns.Client
}

func NewSNSClient(cfg sdkaws.Config) *SNSClient {
	return &SNSClient{client: sns.NewFromConfig(cfg)}
}

// Publish publishes a raw message to the given SNS topic ARN.
func (s *SNSClient) Publish(ctx context.Context, topicArn string, message []byte) error {
	return s.publish(ctx, topicArn, message, nil)
}

// PublishEvent publishes message with an event_type attribute so SQS
// subscriptions can filter on it.
func (s *SNSClient) PublishEvent(ctx context.Context, topicArn, eventType string, message []byte) error {
	attrs := map[string]types.MessageAttributeValue{
		"event_type": {
			DataType:    sdkaws.String("String"),
			StringValue: sdkaws.String(eventType),
		},
	}
	return s.publish(ctx, topicArn, message, attrs)
}

func (s *SNSClient) publish(ctx context.Context, topicArn string, message []byte, attrs map[string]types.MessageAttributeValue) error {
	if topicArn == "" {
		return fmt.Errorf("empty topicArn")
	}
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn:          sdkaws.String(topicArn),
		Message:           sdkaws.String(string(message)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("sns publish failed for topic %s: %w", topicArn, err)
	}
	return nil
}
