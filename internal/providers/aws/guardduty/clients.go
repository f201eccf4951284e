package awsguardduty

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	guardduty "github.com/aws/aws-sdk-go-v2/service/guardduty"
)

// guardDutyAPIClient is the narrow GuardDuty interface. ListDetectors returns
// detector IDs; GetDetector returns the status; CreateSampleFindings emits
// synthetic findings onto the event bus.
type guardDutyAPIClient interface {
	ListDetectors(ctx context.Context, params *guardduty.ListDetectorsInput, optFns ...func(*guardduty.Options)) (*guardduty.ListDetectorsOutput, error)
	GetDetector(ctx context.Context, params *guardduty.GetDetectorInput, optFns ...func(*guardduty.Options)) (*guardduty.GetDetectorOutput, error)
	CreateSampleFindings(ctx context.Context, params *guardduty.CreateSampleFindingsInput, optFns ...func(*guardduty.Options)) (*guardduty.CreateSampleFindingsOutput, error)
}

func newDefaultClient(cfg aws.Config) guardDutyAPIClient {
	return guardduty.NewFromConfig(cfg)
}
