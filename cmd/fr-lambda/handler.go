package main

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/config"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/dispatch"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/gate"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/logging"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/remediate"
)

// handler adapts the dispatcher to the Lambda runtime. The gate lives for
// the lifetime of the execution environment and only serves the audit log.
type handler struct {
	rem      remediate.Remediator
	targetID string
	timeout  time.Duration
	gate     *gate.Gate
	log      *zap.Logger
}

func newHandler(rem remediate.Remediator, env config.LambdaEnv, log *zap.Logger) *handler {
	return &handler{
		rem:      rem,
		targetID: env.ActionTargetID,
		timeout:  env.Timeout,
		gate:     gate.New(log),
		log:      logging.OrNop(log),
	}
}

// Handle processes one custom action event. The action target handle is
// derived from the event's own account and region, so the function can be
// deployed unchanged into any account. Remediation failures are reported in
// the result and never returned as errors: the runtime must not retry.
func (h *handler) Handle(ctx context.Context, evt events.CloudWatchEvent) (models.RemediationResult, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	decoded, err := dispatch.DecodeCloudWatchEvent(evt)
	if err != nil {
		h.log.Error("decode event failed", zap.String("event_id", evt.ID), zap.Error(err))
		return models.RemediationResult{}, nil
	}

	handle := common.BuildARN("securityhub", evt.Region, evt.AccountID, "action/custom/"+h.targetID)
	d := dispatch.New([]dispatch.Binding{{Handle: handle, Remediator: h.rem}}, h.gate, h.log)

	res, err := d.Handle(ctx, decoded)
	if err != nil {
		h.log.Error("dispatch rejected event", zap.String("event_id", evt.ID), zap.Error(err))
		return models.RemediationResult{}, nil
	}
	return res, nil
}
