package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/config"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/dispatch"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/gate"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/output"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/common"
	awssecurityhub "github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/securityhub"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/remediate"
)

// errNotTargeted is returned when a supplied event belongs to another action.
var errNotTargeted = errors.New("event does not target this action")

func newRemediateCmd(opts *rootOptions) *cobra.Command {
	var (
		eventFile  string
		instanceID string
		format     string
	)
	cmd := &cobra.Command{
		Use:   "remediate <action-id>",
		Short: "Run a custom action's remediation, as the console trigger would",
		Long: "Runs the remediator bound to a custom action. Running this command is the\n" +
			"operator approval: nothing is remediated without it or a console trigger.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			action, ok := cfg.Action(args[0])
			if !ok {
				return fmt.Errorf("unknown action %q", args[0])
			}
			log := opts.logger()
			defer log.Sync() //nolint:errcheck

			prof, err := loadProfile(cmd.Context(), common.NewDefaultAWSClientProvider(), opts, cfg)
			if err != nil {
				return err
			}
			reg, err := remediate.Build(actionKinds(cfg), prof.Config, remediate.Options{
				FallbackInstanceID: cfg.Remediation.InstanceID,
				Log:                log,
			})
			if err != nil {
				return err
			}
			rem, _ := reg.Get(action.ID)
			handle := awssecurityhub.NewRegistry(prof.Config, prof.AccountID, log).Handle(action.ID)

			var evt models.CustomActionEvent
			if eventFile != "" {
				raw, err := readInput(eventFile)
				if err != nil {
					return err
				}
				if evt, err = dispatch.DecodeCustomActionEvent(raw); err != nil {
					return err
				}
			} else {
				evt = operatorEvent(handle, action.Name, instanceID, prof.Region, prof.AccountID)
			}

			return runRemediate(cmd.Context(), cmd.OutOrStdout(), handle, rem, evt, cfg.Remediation.Timeout, format, log)
		},
	}
	cmd.Flags().StringVar(&eventFile, "event", "", `Custom action event JSON to replay ("-" for stdin)`)
	cmd.Flags().StringVar(&instanceID, "instance", "", "EC2 instance to quarantine when no event is given")
	cmd.Flags().StringVar(&format, "format", "table", `Output format: "table" or "json"`)
	return cmd
}

// actionKinds lists the configured custom actions with their remediation.
func actionKinds(cfg *config.Config) []remediate.ActionKind {
	out := make([]remediate.ActionKind, 0, len(cfg.Actions))
	for _, a := range cfg.Actions {
		out = append(out, remediate.ActionKind{ActionID: a.ID, Kind: a.Remediation})
	}
	return out
}

// operatorEvent synthesises the custom action event the console would emit.
func operatorEvent(handle, actionName, instanceID, region, accountID string) models.CustomActionEvent {
	evt := models.CustomActionEvent{
		Source:     models.SourceSecurityHub,
		DetailType: models.CustomActionDetailType,
		Resources:  []string{handle},
		ActionName: actionName,
	}
	if instanceID != "" {
		evt.Findings = []models.Finding{{
			ID:        "cli-" + instanceID,
			Source:    models.SourceSecurityHub,
			Region:    region,
			AccountID: accountID,
			Resource:  models.ResourceRef{Type: models.ResourceTypeInstance, ID: instanceID},
			Timestamp: time.Now().UTC(),
		}}
	}
	return evt
}

// runRemediate dispatches evt to rem through a single-binding dispatcher
// under the configured timeout and renders the result.
func runRemediate(ctx context.Context, w io.Writer, handle string, rem remediate.Remediator, evt models.CustomActionEvent, timeout time.Duration, format string, log *zap.Logger) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	d := dispatch.New([]dispatch.Binding{{Handle: handle, Remediator: rem}}, gate.New(log), log)
	res, err := d.Handle(ctx, evt)
	if err != nil {
		return err
	}
	if res.ActionID == "" {
		return fmt.Errorf("%s: %w", handle, errNotTargeted)
	}

	if format == "json" {
		if err := output.RenderJSON(w, res); err != nil {
			return err
		}
	} else {
		output.RenderResult(w, res)
	}
	if !res.Success {
		return fmt.Errorf("remediation %s failed: %s", res.ActionID, res.Error)
	}
	return nil
}
