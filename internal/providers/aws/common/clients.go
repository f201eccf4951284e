package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// STSClient resolves the account the loaded credentials belong to.
type STSClient interface {
	GetCallerIdentity(ctx context.Context, in *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// EC2RegionClient lists the regions doctor checks reachability against.
type EC2RegionClient interface {
	DescribeRegions(ctx context.Context, in *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
}

// ClientSet bundles the account-scope clients of a profile. Service clients
// used by the stack itself (SNS, EventBridge, Security Hub...) are built by
// their own packages from ProfileConfig.Config.
type ClientSet struct {
	STS STSClient
	EC2 EC2RegionClient
}

// ClientFactory builds the ClientSet for a loaded config.
type ClientFactory func(cfg aws.Config) *ClientSet

// NewClientSet is the SDK-backed ClientFactory.
func NewClientSet(cfg aws.Config) *ClientSet {
	return &ClientSet{STS: sts.NewFromConfig(cfg), EC2: ec2.NewFromConfig(cfg)}
}
