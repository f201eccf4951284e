// Package dispatch is the custom action event rule: it accepts "custom
// action invoked" events and hands each one to exactly one remediator.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/gate"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/logging"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/remediate"
)

// ErrAmbiguousEvent is returned when one event names more than one bound
// action target.
var ErrAmbiguousEvent = errors.New("event matches more than one action target")

// consoleActor is recorded as the notifier for findings that reach the
// dispatcher directly: the operator saw them in the Security Hub console.
const consoleActor = "securityhub-console"

// Binding ties an action target handle to its remediator.
type Binding struct {
	Handle     string
	Remediator remediate.Remediator
}

// Dispatcher routes custom action events to remediators by handle.
type Dispatcher struct {
	bindings map[string]remediate.Remediator
	gate     *gate.Gate
	log      *zap.Logger
}

// New builds a Dispatcher. It panics when two bindings share a handle, which
// would break the one-rule-one-remediator invariant. g may be nil.
func New(bindings []Binding, g *gate.Gate, log *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		bindings: make(map[string]remediate.Remediator, len(bindings)),
		gate:     g,
		log:      logging.OrNop(log).Named("dispatch"),
	}
	for _, b := range bindings {
		if _, dup := d.bindings[b.Handle]; dup {
			panic(fmt.Sprintf("dispatch: duplicate binding for %s", b.Handle))
		}
		d.bindings[b.Handle] = b.Remediator
	}
	return d
}

// Handle dispatches evt. Events that are not custom action events, or that
// name no bound handle, are ignored: the zero result and a nil error are
// returned and no remediator runs.
func (d *Dispatcher) Handle(ctx context.Context, evt models.CustomActionEvent) (models.RemediationResult, error) {
	if evt.Source != models.SourceSecurityHub || evt.DetailType != models.CustomActionDetailType {
		d.log.Debug("ignoring non custom action event",
			zap.String("source", evt.Source),
			zap.String("detail_type", evt.DetailType),
		)
		return models.RemediationResult{}, nil
	}

	var (
		rem    remediate.Remediator
		handle string
	)
	for _, res := range evt.Resources {
		r, ok := d.bindings[res]
		if !ok {
			continue
		}
		if rem != nil && res != handle {
			return models.RemediationResult{}, fmt.Errorf("dispatch %v: %w", evt.Resources, ErrAmbiguousEvent)
		}
		rem, handle = r, res
	}
	if rem == nil {
		d.log.Info("custom action event for unbound target", zap.Strings("resources", evt.Resources))
		return models.RemediationResult{}, nil
	}

	d.approve(evt, rem.ActionID())

	d.log.Info("dispatching remediation",
		zap.String("action_id", rem.ActionID()),
		zap.String("action_name", evt.ActionName),
		zap.Int("findings", len(evt.Findings)),
	)
	result := rem.Remediate(ctx, remediate.Invocation{ActionID: rem.ActionID(), Findings: evt.Findings})

	d.complete(evt, result)
	if result.Success {
		d.log.Info("remediation finished",
			zap.String("action_id", result.ActionID),
			zap.Bool("changed", result.Changed),
			zap.Strings("targets", result.Targets),
		)
	} else {
		d.log.Error("remediation failed",
			zap.String("action_id", result.ActionID),
			zap.Strings("targets", result.Targets),
			zap.String("error", result.Error),
		)
	}
	return result, nil
}

func (d *Dispatcher) approve(evt models.CustomActionEvent, actionID string) {
	if d.gate == nil {
		return
	}
	for _, f := range evt.Findings {
		d.gate.Detect(f, f.Source)
		if err := d.gate.Notify(f.ID, consoleActor); err != nil {
			d.log.Warn("gate notify failed", zap.String("finding_id", f.ID), zap.Error(err))
		}
		if err := d.gate.Approve(f.ID, actionID, evt.ActionName); err != nil {
			d.log.Warn("gate approve failed", zap.String("finding_id", f.ID), zap.Error(err))
		}
	}
}

func (d *Dispatcher) complete(evt models.CustomActionEvent, result models.RemediationResult) {
	if d.gate == nil {
		return
	}
	for _, f := range evt.Findings {
		if err := d.gate.Complete(f.ID, result); err != nil {
			d.log.Warn("gate complete failed", zap.String("finding_id", f.ID), zap.Error(err))
		}
	}
}
