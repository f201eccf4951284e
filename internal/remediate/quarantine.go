package remediate

import (
	"context"
	"time"

	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"go.uber.org/zap"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/logging"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/common"
)

// ec2InstanceAPIClient is the narrow EC2 interface used to halt instances.
type ec2InstanceAPIClient interface {
	DescribeInstances(ctx context.Context, params *ec2svc.DescribeInstancesInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeInstancesOutput, error)
	StopInstances(ctx context.Context, params *ec2svc.StopInstancesInput, optFns ...func(*ec2svc.Options)) (*ec2svc.StopInstancesOutput, error)
}

// halted lists the instance states that already satisfy "not running".
var halted = map[ec2types.InstanceStateName]struct{}{
	ec2types.InstanceStateNameStopping:     {},
	ec2types.InstanceStateNameStopped:      {},
	ec2types.InstanceStateNameShuttingDown: {},
	ec2types.InstanceStateNameTerminated:   {},
}

// Quarantine halts the EC2 instances named by the triggering findings.
// The configured fallback instance is used only when no finding names one.
type Quarantine struct {
	actionID string
	client   ec2InstanceAPIClient
	fallback string
	log      *zap.Logger
}

// NewQuarantine returns a Quarantine remediator bound to actionID.
func NewQuarantine(actionID string, client ec2InstanceAPIClient, fallbackInstanceID string, log *zap.Logger) *Quarantine {
	return &Quarantine{
		actionID: actionID,
		client:   client,
		fallback: fallbackInstanceID,
		log:      logging.OrNop(log).Named("quarantine"),
	}
}

func (q *Quarantine) ActionID() string { return q.actionID }
func (q *Quarantine) Kind() string     { return models.RemediationQuarantineInstance }

// TargetInstances returns the deduplicated EC2 instance IDs named by
// findings, in first-seen order. When none are named, fallback is returned on
// its own (if set).
func TargetInstances(findings []models.Finding, fallback string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, f := range findings {
		if !f.Resource.IsEC2Instance() {
			continue
		}
		id, ok := common.InstanceIDFromARN(f.Resource.ID)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 && fallback != "" {
		return []string{fallback}
	}
	return ids
}

// Remediate stops every target instance that is not already halted.
func (q *Quarantine) Remediate(ctx context.Context, inv Invocation) (result models.RemediationResult) {
	result = models.RemediationResult{ActionID: q.actionID}
	defer func() { result.CompletedAt = time.Now().UTC() }()

	targets := TargetInstances(inv.Findings, q.fallback)
	result.Targets = targets
	if len(targets) == 0 {
		result.Error = "no target instance in findings and no fallback configured"
		q.log.Error("quarantine skipped", zap.String("reason", result.Error))
		return result
	}

	pending := q.pending(ctx, targets)
	if len(pending) == 0 {
		q.log.Info("instances already halted", zap.Strings("instances", targets))
		result.Success = true
		return result
	}

	out, err := q.client.StopInstances(ctx, &ec2svc.StopInstancesInput{InstanceIds: pending})
	result.Response = out
	if err != nil {
		if common.HasErrorCode(err, "IncorrectInstanceState") {
			// Lost a race with another stop or a termination.
			q.log.Info("instances changed state concurrently", zap.Strings("instances", pending), zap.Error(err))
			result.Success = true
			return result
		}
		q.log.Error("stop instances failed", zap.Strings("instances", pending), zap.Error(err))
		result.Error = err.Error()
		return result
	}

	q.log.Info("instances stopped", zap.Strings("instances", pending))
	result.Success = true
	result.Changed = true
	return result
}

// pending returns the subset of targets that still need stopping. When the
// describe call fails every target is assumed pending; StopInstances on a
// halted instance is itself harmless.
func (q *Quarantine) pending(ctx context.Context, targets []string) []string {
	out, err := q.client.DescribeInstances(ctx, &ec2svc.DescribeInstancesInput{InstanceIds: targets})
	if err != nil {
		q.log.Warn("describe instances failed; stopping all targets", zap.Error(err))
		return targets
	}

	state := make(map[string]ec2types.InstanceStateName)
	for _, res := range out.Reservations {
		for _, inst := range res.Instances {
			if inst.InstanceId == nil || inst.State == nil {
				continue
			}
			state[*inst.InstanceId] = inst.State.Name
		}
	}

	var pending []string
	for _, id := range targets {
		name, known := state[id]
		if _, done := halted[name]; known && done {
			continue
		}
		pending = append(pending, id)
	}
	return pending
}
