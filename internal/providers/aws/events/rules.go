// Package awsevents deploys event rules on the default EventBridge bus and
// grants them permission to invoke the remediation Lambda.
package awsevents

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	ebsvc "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	"go.uber.org/zap"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/logging"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/common"
)

const (
	codeConflict = "ResourceConflictException"
	codeNotFound = "ResourceNotFoundException"

	eventsPrincipal = "events.amazonaws.com"
)

// RuleSpec is one rule to deploy: a name, the rendered event pattern and the
// single target it delivers to.
type RuleSpec struct {
	Name        string
	Description string
	Pattern     string
	TargetID    string
	TargetARN   string
}

// Rules manages EventBridge rules and Lambda invoke permissions.
type Rules struct {
	events eventBridgeAPIClient
	lambda lambdaPermissionAPIClient
	log    *zap.Logger
}

// NewRules returns a Rules using SDK clients built from cfg.
func NewRules(cfg aws.Config, log *zap.Logger) *Rules {
	eb, lc := newDefaultClients(cfg)
	return NewRulesWithClients(eb, lc, log)
}

// NewRulesWithClients is NewRules with injected clients.
func NewRulesWithClients(eb eventBridgeAPIClient, lc lambdaPermissionAPIClient, log *zap.Logger) *Rules {
	return &Rules{events: eb, lambda: lc, log: logging.OrNop(log).Named("event-rules")}
}

// Put creates or updates the rule and attaches its target. PutRule and
// PutTargets are both upserts, so Put converges on repeated calls. It returns
// the rule ARN.
func (r *Rules) Put(ctx context.Context, spec RuleSpec) (string, error) {
	out, err := r.events.PutRule(ctx, &ebsvc.PutRuleInput{
		Name:         aws.String(spec.Name),
		Description:  aws.String(spec.Description),
		EventPattern: aws.String(spec.Pattern),
		State:        ebtypes.RuleStateEnabled,
	})
	if err != nil {
		r.log.Error("put rule failed", zap.String("rule", spec.Name), zap.Error(err))
		return "", common.Soft("put rule "+spec.Name, err)
	}
	ruleARN := aws.ToString(out.RuleArn)

	tout, err := r.events.PutTargets(ctx, &ebsvc.PutTargetsInput{
		Rule: aws.String(spec.Name),
		Targets: []ebtypes.Target{{
			Id:  aws.String(spec.TargetID),
			Arn: aws.String(spec.TargetARN),
		}},
	})
	if err != nil {
		r.log.Error("put targets failed", zap.String("rule", spec.Name), zap.Error(err))
		return ruleARN, common.Soft("put targets "+spec.Name, err)
	}
	if tout.FailedEntryCount > 0 && len(tout.FailedEntries) > 0 {
		fe := tout.FailedEntries[0]
		err := fmt.Errorf("%s: %s", aws.ToString(fe.ErrorCode), aws.ToString(fe.ErrorMessage))
		r.log.Error("target rejected", zap.String("rule", spec.Name), zap.String("target", spec.TargetID), zap.Error(err))
		return ruleARN, common.Soft("put targets "+spec.Name, err)
	}

	r.log.Info("rule deployed",
		zap.String("rule", spec.Name),
		zap.String("arn", ruleARN),
		zap.String("target", spec.TargetARN),
	)
	return ruleARN, nil
}

// Delete detaches targetIDs and removes the rule. A rule that no longer
// exists is not an error.
func (r *Rules) Delete(ctx context.Context, name string, targetIDs ...string) error {
	if len(targetIDs) > 0 {
		_, err := r.events.RemoveTargets(ctx, &ebsvc.RemoveTargetsInput{
			Rule: aws.String(name),
			Ids:  targetIDs,
		})
		if err != nil && !common.HasErrorCode(err, codeNotFound) {
			r.log.Error("remove targets failed", zap.String("rule", name), zap.Error(err))
			return common.Soft("remove targets "+name, err)
		}
	}

	_, err := r.events.DeleteRule(ctx, &ebsvc.DeleteRuleInput{Name: aws.String(name)})
	switch {
	case err == nil:
		r.log.Info("rule deleted", zap.String("rule", name))
		return nil
	case common.HasErrorCode(err, codeNotFound):
		r.log.Warn("rule not found", zap.String("rule", name))
		return nil
	default:
		r.log.Error("delete rule failed", zap.String("rule", name), zap.Error(err))
		return common.Soft("delete rule "+name, err)
	}
}

// GrantInvoke lets the rule at ruleARN invoke functionARN. The statement is
// scoped to that one rule through SourceArn. An existing statement with the
// same id is left in place.
func (r *Rules) GrantInvoke(ctx context.Context, functionARN, statementID, ruleARN string) error {
	_, err := r.lambda.AddPermission(ctx, &lambdasvc.AddPermissionInput{
		FunctionName: aws.String(functionARN),
		StatementId:  aws.String(statementID),
		Action:       aws.String("lambda:InvokeFunction"),
		Principal:    aws.String(eventsPrincipal),
		SourceArn:    aws.String(ruleARN),
	})
	switch {
	case err == nil:
		r.log.Info("invoke permission granted", zap.String("function", functionARN), zap.String("rule", ruleARN))
		return nil
	case common.HasErrorCode(err, codeConflict):
		r.log.Warn("invoke permission already present", zap.String("statement", statementID))
		return nil
	default:
		r.log.Error("add permission failed", zap.String("statement", statementID), zap.Error(err))
		return common.Soft("add permission "+statementID, err)
	}
}

// RevokeInvoke removes the statement added by GrantInvoke.
func (r *Rules) RevokeInvoke(ctx context.Context, functionARN, statementID string) error {
	_, err := r.lambda.RemovePermission(ctx, &lambdasvc.RemovePermissionInput{
		FunctionName: aws.String(functionARN),
		StatementId:  aws.String(statementID),
	})
	switch {
	case err == nil:
		r.log.Info("invoke permission revoked", zap.String("statement", statementID))
		return nil
	case common.HasErrorCode(err, codeNotFound):
		return nil
	default:
		r.log.Error("remove permission failed", zap.String("statement", statementID), zap.Error(err))
		return common.Soft("remove permission "+statementID, err)
	}
}
