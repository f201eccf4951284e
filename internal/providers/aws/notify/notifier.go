// Package awsnotify delivers findings to the notification channel, an SNS
// topic with one email subscription, and provisions that topic.
package awsnotify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	snssvc "github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/logging"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
)

// maxSubjectLen is the SNS limit for email subjects.
const maxSubjectLen = 100

// SNSNotifier publishes findings to a topic. It is a router target.
type SNSNotifier struct {
	client   snsPublishAPIClient
	topicARN string
	log      *zap.Logger
}

// NewSNSNotifier returns a notifier publishing to topicARN with an SDK client
// built from cfg.
func NewSNSNotifier(cfg aws.Config, topicARN string, log *zap.Logger) *SNSNotifier {
	return NewSNSNotifierWithClient(newDefaultClient(cfg), topicARN, log)
}

// NewSNSNotifierWithClient is NewSNSNotifier with an injected client.
func NewSNSNotifierWithClient(client snsPublishAPIClient, topicARN string, log *zap.Logger) *SNSNotifier {
	return &SNSNotifier{
		client:   client,
		topicARN: topicARN,
		log:      logging.OrNop(log).Named("notifier"),
	}
}

func (n *SNSNotifier) Name() string { return "sns" }

// Deliver publishes f as indented JSON with a short human subject.
func (n *SNSNotifier) Deliver(ctx context.Context, f models.Finding) error {
	body, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode finding %s: %w", f.ID, err)
	}

	out, err := n.client.Publish(ctx, &snssvc.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(Subject(f)),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("publish finding %s: %w", f.ID, err)
	}
	n.log.Info("finding published",
		zap.String("finding_id", f.ID),
		zap.String("topic", n.topicARN),
		zap.String("message_id", aws.ToString(out.MessageId)),
	)
	return nil
}

// Subject renders the email subject for f, clamped to the SNS limit and
// restricted to printable ASCII.
func Subject(f models.Finding) string {
	s := fmt.Sprintf("[%s] %s", f.SeverityLabel(), f.Type)
	if f.Resource.ID != "" {
		s += " on " + f.Resource.ID
	}
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return '?'
		}
		return r
	}, s)
	if len(s) > maxSubjectLen {
		s = s[:maxSubjectLen]
	}
	return s
}
