package awsnotify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	snssvc "github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/logging"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/common"
)

const eventsPrincipal = "events.amazonaws.com"

// Topics provisions the notification topic.
type Topics struct {
	client snsTopicAPIClient
	log    *zap.Logger
}

// NewTopics returns a Topics using an SDK client built from cfg.
func NewTopics(cfg aws.Config, log *zap.Logger) *Topics {
	return NewTopicsWithClient(newDefaultClient(cfg), log)
}

// NewTopicsWithClient is NewTopics with an injected client.
func NewTopicsWithClient(client snsTopicAPIClient, log *zap.Logger) *Topics {
	return &Topics{client: client, log: logging.OrNop(log).Named("topics")}
}

// Ensure creates (or finds) the topic named name and returns its ARN.
func (t *Topics) Ensure(ctx context.Context, name string) (string, error) {
	out, err := t.client.CreateTopic(ctx, &snssvc.CreateTopicInput{Name: aws.String(name)})
	if err != nil {
		t.log.Error("create topic failed", zap.String("topic", name), zap.Error(err))
		return "", common.Soft("create topic "+name, err)
	}
	arn := aws.ToString(out.TopicArn)
	t.log.Info("topic ready", zap.String("topic", name), zap.String("arn", arn))
	return arn, nil
}

// AllowEvents replaces the topic policy with one that lets EventBridge
// publish to it.
func (t *Topics) AllowEvents(ctx context.Context, topicARN string) error {
	policy, err := TopicPolicy(topicARN)
	if err != nil {
		return err
	}
	_, err = t.client.SetTopicAttributes(ctx, &snssvc.SetTopicAttributesInput{
		TopicArn:       aws.String(topicARN),
		AttributeName:  aws.String("Policy"),
		AttributeValue: aws.String(policy),
	})
	if err != nil {
		t.log.Error("set topic policy failed", zap.String("arn", topicARN), zap.Error(err))
		return common.Soft("set topic policy", err)
	}
	return nil
}

// Subscribe adds an email subscription. SNS returns the existing
// subscription when the address is already subscribed; the recipient must
// confirm a new one before mail is delivered.
func (t *Topics) Subscribe(ctx context.Context, topicARN, email string) error {
	out, err := t.client.Subscribe(ctx, &snssvc.SubscribeInput{
		TopicArn: aws.String(topicARN),
		Protocol: aws.String("email"),
		Endpoint: aws.String(email),
	})
	if err != nil {
		t.log.Error("subscribe failed", zap.String("email", email), zap.Error(err))
		return common.Soft("subscribe "+email, err)
	}
	t.log.Info("email subscribed", zap.String("email", email), zap.String("subscription", aws.ToString(out.SubscriptionArn)))
	return nil
}

// Delete removes the topic and its subscriptions. Deleting a missing topic
// succeeds on the SNS side.
func (t *Topics) Delete(ctx context.Context, topicARN string) error {
	if _, err := t.client.DeleteTopic(ctx, &snssvc.DeleteTopicInput{TopicArn: aws.String(topicARN)}); err != nil {
		if common.HasErrorCode(err, "NotFound") {
			return nil
		}
		t.log.Error("delete topic failed", zap.String("arn", topicARN), zap.Error(err))
		return common.Soft("delete topic", err)
	}
	t.log.Info("topic deleted", zap.String("arn", topicARN))
	return nil
}

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Sid       string            `json:"Sid"`
	Effect    string            `json:"Effect"`
	Principal map[string]string `json:"Principal"`
	Action    string            `json:"Action"`
	Resource  string            `json:"Resource"`
}

// TopicPolicy renders the resource policy granting sns:Publish on topicARN
// to EventBridge.
func TopicPolicy(topicARN string) (string, error) {
	doc := policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Sid:       "AllowEventBridgePublish",
			Effect:    "Allow",
			Principal: map[string]string{"Service": eventsPrincipal},
			Action:    "sns:Publish",
			Resource:  topicARN,
		}},
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode topic policy: %w", err)
	}
	return string(b), nil
}
