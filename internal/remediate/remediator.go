// Package remediate holds the remediators: one idempotent corrective
// operation each. A remediator describes the end state it wants and converges
// the target to it, so repeated or concurrent invocations are harmless.
//
// Provider errors never escape as Go errors. They are logged and reported in
// the RemediationResult, and the remediator never retries; an operator can
// simply invoke the custom action again.
package remediate

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	"go.uber.org/zap"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
)

// Invocation is everything a remediator receives for one custom action
// trigger: the action id and the findings the operator selected.
type Invocation struct {
	ActionID string
	Findings []models.Finding
}

// Remediator performs exactly one provider mutation, convergently.
type Remediator interface {
	// ActionID returns the custom action id this remediator is bound to.
	ActionID() string

	// Kind returns the remediation kind (e.g. "quarantine-instance").
	Kind() string

	// Remediate converges the target to the desired state. It never panics
	// and never returns a Go error; failures are carried in the result.
	Remediate(ctx context.Context, inv Invocation) models.RemediationResult
}

// Options carries the settings remediators read at construction time.
type Options struct {
	// FallbackInstanceID is used by the quarantine remediator only when the
	// triggering findings name no EC2 instance.
	FallbackInstanceID string

	Log *zap.Logger
}

// NewFromConfig builds the production remediator of the given kind bound to
// actionID, using SDK clients built from cfg.
func NewFromConfig(kind, actionID string, cfg aws.Config, opts Options) (Remediator, error) {
	switch kind {
	case models.RemediationQuarantineInstance:
		return NewQuarantine(actionID, ec2svc.NewFromConfig(cfg), opts.FallbackInstanceID, opts.Log), nil
	case models.RemediationHardenPasswordPolicy:
		return NewPasswordPolicyHardener(actionID, iamsvc.NewFromConfig(cfg), opts.Log), nil
	default:
		return nil, fmt.Errorf("unknown remediation kind %q", kind)
	}
}
