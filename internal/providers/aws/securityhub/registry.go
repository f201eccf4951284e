// Package awssecurityhub registers and unregisters Security Hub custom action
// targets. The registry is stateless: a target's handle (its ARN) is derived
// from id, region and account, so teardown never needs a stored handle.
package awssecurityhub

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	securityhub "github.com/aws/aws-sdk-go-v2/service/securityhub"
	"go.uber.org/zap"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/logging"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/common"
)

// Security Hub error codes treated as benign during create/delete.
const (
	codeConflict = "ResourceConflictException"
	codeNotFound = "ResourceNotFoundException"
)

// Registry is the action target registry backed by Security Hub.
type Registry struct {
	client    securityHubAPIClient
	region    string
	accountID string
	log       *zap.Logger
}

// NewRegistry returns a Registry using production SDK clients built from cfg.
func NewRegistry(cfg aws.Config, accountID string, log *zap.Logger) *Registry {
	return NewRegistryWithClient(newDefaultClient(cfg), cfg.Region, accountID, log)
}

// NewRegistryWithClient returns a Registry using client. Tests pass a fake.
func NewRegistryWithClient(client securityHubAPIClient, region, accountID string, log *zap.Logger) *Registry {
	return &Registry{
		client:    client,
		region:    region,
		accountID: accountID,
		log:       logging.OrNop(log).Named("action-targets"),
	}
}

// Handle derives the action target ARN for id.
func (r *Registry) Handle(id string) string {
	return common.BuildARN("securityhub", r.region, r.accountID, "action/custom/"+id)
}

// Register creates the custom action target and returns its record.
//
// An already-existing target is not an error: it is logged and the derived
// handle returned, since the existing target serves the same purpose. Any
// other provider error is logged and returned as a soft failure; the record is
// still returned with its derived handle.
func (r *Registry) Register(ctx context.Context, id, name, description string) (models.ActionTarget, error) {
	target := models.ActionTarget{
		ID:          id,
		Name:        name,
		Description: description,
		Handle:      r.Handle(id),
	}

	out, err := r.client.CreateActionTarget(ctx, &securityhub.CreateActionTargetInput{
		Id:          aws.String(id),
		Name:        aws.String(name),
		Description: aws.String(description),
	})
	switch {
	case err == nil:
		if arn := aws.ToString(out.ActionTargetArn); arn != "" {
			target.Handle = arn
		}
		r.log.Info("action target registered", zap.String("id", id), zap.String("handle", target.Handle))
		return target, nil
	case common.HasErrorCode(err, codeConflict):
		r.log.Warn("action target already exists", zap.String("id", id), zap.String("handle", target.Handle))
		return target, nil
	default:
		r.log.Error("register action target failed", zap.String("id", id), zap.Error(err))
		return target, common.Soft(fmt.Sprintf("register action target %s", id), err)
	}
}

// Unregister deletes the custom action target for id. A target that is
// already gone is logged and ignored; other errors are soft failures.
func (r *Registry) Unregister(ctx context.Context, id string) error {
	handle := r.Handle(id)
	_, err := r.client.DeleteActionTarget(ctx, &securityhub.DeleteActionTargetInput{
		ActionTargetArn: aws.String(handle),
	})
	switch {
	case err == nil:
		r.log.Info("action target removed", zap.String("id", id), zap.String("handle", handle))
		return nil
	case common.HasErrorCode(err, codeNotFound):
		r.log.Warn("action target not found", zap.String("id", id), zap.String("handle", handle))
		return nil
	default:
		r.log.Error("unregister action target failed", zap.String("id", id), zap.Error(err))
		return common.Soft(fmt.Sprintf("unregister action target %s", id), err)
	}
}
