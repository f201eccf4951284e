package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// ProfileConfig is an account the remediation stack is deployed into: the
// SDK config pinned to the stack region plus the identity STS reported.
type ProfileConfig struct {
	ProfileName string
	AccountID   string

	// Region hosts the topic, the rules, the action targets and the
	// remediation functions.
	Region string

	Config  aws.Config
	Clients *ClientSet
}

// AWSClientProvider resolves profiles. The CLI depends on this interface so
// doctor and the provisioning commands can run against fakes.
type AWSClientProvider interface {
	// LoadProfile loads profile (empty for the default chain) and pins it to
	// region when one is given.
	LoadProfile(ctx context.Context, profile, region string) (*ProfileConfig, error)

	// GetActiveRegions lists the regions enabled for the account.
	GetActiveRegions(ctx context.Context, cfg *ProfileConfig) ([]string, error)
}
