package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Security Hub custom actions and GuardDuty are regional; a stack with no
// region configured anywhere lands here.
const fallbackRegion = "us-east-1"

// ConfigLoader has the shape of awsconfig.LoadDefaultConfig.
type ConfigLoader func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error)

// DefaultAWSClientProvider loads profiles from the shared config files and
// the environment.
type DefaultAWSClientProvider struct {
	factory ClientFactory
	load    ConfigLoader
}

func NewDefaultAWSClientProvider() *DefaultAWSClientProvider {
	return NewDefaultAWSClientProviderWithFactory(NewClientSet, nil)
}

// NewDefaultAWSClientProviderWithFactory swaps the client factory and the
// config loader; a nil loader keeps awsconfig.LoadDefaultConfig.
func NewDefaultAWSClientProviderWithFactory(f ClientFactory, load ConfigLoader) *DefaultAWSClientProvider {
	if load == nil {
		load = awsconfig.LoadDefaultConfig
	}
	return &DefaultAWSClientProvider{factory: f, load: load}
}

func (p *DefaultAWSClientProvider) LoadProfile(ctx context.Context, profile, region string) (*ProfileConfig, error) {
	name := displayProfile(profile)

	var opts []func(*awsconfig.LoadOptions) error
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := p.load(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS profile %q: %w", name, err)
	}
	if cfg.Region == "" {
		cfg.Region = fallbackRegion
	}

	clients := p.factory(cfg)
	account, err := callerAccount(ctx, clients.STS)
	if err != nil {
		return nil, fmt.Errorf("resolve account ID for profile %q: %w", name, err)
	}
	return &ProfileConfig{
		ProfileName: name,
		AccountID:   account,
		Region:      cfg.Region,
		Config:      cfg,
		Clients:     clients,
	}, nil
}

// GetActiveRegions returns the opted-in regions only.
func (p *DefaultAWSClientProvider) GetActiveRegions(ctx context.Context, cfg *ProfileConfig) ([]string, error) {
	out, err := cfg.Clients.EC2.DescribeRegions(ctx, &ec2.DescribeRegionsInput{AllRegions: aws.Bool(false)})
	if err != nil {
		return nil, fmt.Errorf("describe regions for profile %q: %w", cfg.ProfileName, err)
	}
	var regions []string
	for _, r := range out.Regions {
		if name := aws.ToString(r.RegionName); name != "" {
			regions = append(regions, name)
		}
	}
	return regions, nil
}

func displayProfile(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}

func callerAccount(ctx context.Context, client STSClient) (string, error) {
	out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("STS GetCallerIdentity: %w", err)
	}
	if aws.ToString(out.Account) == "" {
		return "", errors.New("STS GetCallerIdentity returned no account")
	}
	return aws.ToString(out.Account), nil
}
