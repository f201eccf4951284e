package awsevents

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	ebsvc "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
)

// eventBridgeAPIClient is the narrow EventBridge interface for managing
// rules on the default bus.
type eventBridgeAPIClient interface {
	PutRule(ctx context.Context, params *ebsvc.PutRuleInput, optFns ...func(*ebsvc.Options)) (*ebsvc.PutRuleOutput, error)
	PutTargets(ctx context.Context, params *ebsvc.PutTargetsInput, optFns ...func(*ebsvc.Options)) (*ebsvc.PutTargetsOutput, error)
	RemoveTargets(ctx context.Context, params *ebsvc.RemoveTargetsInput, optFns ...func(*ebsvc.Options)) (*ebsvc.RemoveTargetsOutput, error)
	DeleteRule(ctx context.Context, params *ebsvc.DeleteRuleInput, optFns ...func(*ebsvc.Options)) (*ebsvc.DeleteRuleOutput, error)
}

// lambdaPermissionAPIClient is the narrow Lambda interface for the resource
// policy statements that let a rule invoke the remediation function.
type lambdaPermissionAPIClient interface {
	AddPermission(ctx context.Context, params *lambdasvc.AddPermissionInput, optFns ...func(*lambdasvc.Options)) (*lambdasvc.AddPermissionOutput, error)
	RemovePermission(ctx context.Context, params *lambdasvc.RemovePermissionInput, optFns ...func(*lambdasvc.Options)) (*lambdasvc.RemovePermissionOutput, error)
}

func newDefaultClients(cfg aws.Config) (eventBridgeAPIClient, lambdaPermissionAPIClient) {
	return ebsvc.NewFromConfig(cfg), lambdasvc.NewFromConfig(cfg)
}
