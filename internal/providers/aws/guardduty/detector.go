// Package awsguardduty talks to the external detection engine: it checks
// that a detector is enabled and can ask it to emit sample findings.
package awsguardduty

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	guardduty "github.com/aws/aws-sdk-go-v2/service/guardduty"
	guarddutytype "github.com/aws/aws-sdk-go-v2/service/guardduty/types"
	"go.uber.org/zap"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/logging"
)

// ErrNoDetector is returned when the region has no GuardDuty detector.
var ErrNoDetector = errors.New("no guardduty detector in region")

// DetectorStatus is the detection engine state for one region.
type DetectorStatus struct {
	Region     string `json:"region"`
	DetectorID string `json:"detector_id,omitempty"`
	Enabled    bool   `json:"enabled"`
}

// Detector wraps the GuardDuty detector of one region.
type Detector struct {
	client guardDutyAPIClient
	region string
	log    *zap.Logger
}

// NewDetector returns a Detector using an SDK client built from cfg.
func NewDetector(cfg aws.Config, log *zap.Logger) *Detector {
	return NewDetectorWithClient(newDefaultClient(cfg), cfg.Region, log)
}

// NewDetectorWithClient is NewDetector with an injected client.
func NewDetectorWithClient(client guardDutyAPIClient, region string, log *zap.Logger) *Detector {
	return &Detector{client: client, region: region, log: logging.OrNop(log).Named("guardduty")}
}

// Status checks whether GuardDuty has an enabled detector. It first lists
// detectors; if none exist, GuardDuty is not enabled. Otherwise GetDetector
// verifies the first detector's status.
//
// Enabled is false on error.
func (d *Detector) Status(ctx context.Context) (DetectorStatus, error) {
	st := DetectorStatus{Region: d.region}

	listOut, err := d.client.ListDetectors(ctx, &guardduty.ListDetectorsInput{})
	if err != nil {
		return st, fmt.Errorf("list detectors: %w", err)
	}
	if len(listOut.DetectorIds) == 0 {
		return st, nil
	}

	// One detector per account and region.
	st.DetectorID = listOut.DetectorIds[0]
	detOut, err := d.client.GetDetector(ctx, &guardduty.GetDetectorInput{
		DetectorId: aws.String(st.DetectorID),
	})
	if err != nil {
		return st, fmt.Errorf("get detector %s: %w", st.DetectorID, err)
	}
	st.Enabled = detOut.Status == guarddutytype.DetectorStatusEnabled
	return st, nil
}

// CreateSamples asks GuardDuty to generate one sample finding per type. The
// samples flow through EventBridge like real findings, which exercises the
// deployed routes end to end.
func (d *Detector) CreateSamples(ctx context.Context, findingTypes []string) error {
	st, err := d.Status(ctx)
	if err != nil {
		return err
	}
	if st.DetectorID == "" {
		return fmt.Errorf("create sample findings in %s: %w", d.region, ErrNoDetector)
	}

	_, err = d.client.CreateSampleFindings(ctx, &guardduty.CreateSampleFindingsInput{
		DetectorId:   aws.String(st.DetectorID),
		FindingTypes: findingTypes,
	})
	if err != nil {
		return fmt.Errorf("create sample findings: %w", err)
	}
	d.log.Info("sample findings requested",
		zap.String("detector", st.DetectorID),
		zap.Strings("types", findingTypes),
	)
	return nil
}
