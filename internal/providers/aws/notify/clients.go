package awsnotify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	snssvc "github.com/aws/aws-sdk-go-v2/service/sns"
)

// snsPublishAPIClient is the narrow SNS interface used on the delivery path.
type snsPublishAPIClient interface {
	Publish(ctx context.Context, params *snssvc.PublishInput, optFns ...func(*snssvc.Options)) (*snssvc.PublishOutput, error)
}

// snsTopicAPIClient is the narrow SNS interface used to provision the
// notification topic. CreateTopic is idempotent by name.
type snsTopicAPIClient interface {
	CreateTopic(ctx context.Context, params *snssvc.CreateTopicInput, optFns ...func(*snssvc.Options)) (*snssvc.CreateTopicOutput, error)
	SetTopicAttributes(ctx context.Context, params *snssvc.SetTopicAttributesInput, optFns ...func(*snssvc.Options)) (*snssvc.SetTopicAttributesOutput, error)
	Subscribe(ctx context.Context, params *snssvc.SubscribeInput, optFns ...func(*snssvc.Options)) (*snssvc.SubscribeOutput, error)
	DeleteTopic(ctx context.Context, params *snssvc.DeleteTopicInput, optFns ...func(*snssvc.Options)) (*snssvc.DeleteTopicOutput, error)
}

func newDefaultClient(cfg aws.Config) *snssvc.Client {
	return snssvc.NewFromConfig(cfg)
}
