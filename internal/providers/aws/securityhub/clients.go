package awssecurityhub

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	securityhub "github.com/aws/aws-sdk-go-v2/service/securityhub"
)

// securityHubAPIClient is the narrow Security Hub interface used by the
// action target registry. There is no update operation: targets are created
// once and deleted at teardown.
type securityHubAPIClient interface {
	CreateActionTarget(ctx context.Context, params *securityhub.CreateActionTargetInput, optFns ...func(*securityhub.Options)) (*securityhub.CreateActionTargetOutput, error)
	DeleteActionTarget(ctx context.Context, params *securityhub.DeleteActionTargetInput, optFns ...func(*securityhub.Options)) (*securityhub.DeleteActionTargetOutput, error)
}

func newDefaultClient(cfg aws.Config) securityHubAPIClient {
	return securityhub.NewFromConfig(cfg)
}
