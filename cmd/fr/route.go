package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/config"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/gate"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/output"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/common"
	awsnotify "github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/notify"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/provision"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/router"
)

// dryRunTarget accepts every finding without side effects.
type dryRunTarget struct{}

func (dryRunTarget) Name() string                                  { return "dry-run" }
func (dryRunTarget) Deliver(context.Context, models.Finding) error { return nil }

func newRouteCmd(opts *rootOptions) *cobra.Command {
	var (
		file    string
		publish bool
		format  string
	)
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Route a captured GuardDuty event through the configured rules",
		Long: "Decodes an EventBridge GuardDuty event and shows which routes match it.\n" +
			"With --publish the finding is also sent to the notification topic.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			raw, err := readInput(file)
			if err != nil {
				return err
			}
			log := opts.logger()
			defer log.Sync() //nolint:errcheck

			var target router.Target = dryRunTarget{}
			if publish {
				prof, err := loadProfile(cmd.Context(), common.NewDefaultAWSClientProvider(), opts, cfg)
				if err != nil {
					return err
				}
				topicARN := provision.New(prof, cfg, log).TopicARN()
				target = awsnotify.NewSNSNotifier(prof.Config, topicARN, log)
			}
			return runRoute(cmd.Context(), cmd.OutOrStdout(), raw, cfg, target, format, log)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", `Event JSON file ("-" for stdin)`)
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish matched findings to the notification topic")
	cmd.Flags().StringVar(&format, "format", "table", `Output format: "table" or "json"`)
	return cmd
}

type deliveryView struct {
	Rule   string `json:"rule"`
	Target string `json:"target"`
	Error  string `json:"error,omitempty"`
}

type routeView struct {
	Finding    models.Finding `json:"finding"`
	Deliveries []deliveryView `json:"deliveries"`
	Stage      gate.Stage     `json:"stage,omitempty"`
}

// runRoute decodes raw, routes it through cfg's rules to target and renders
// the outcome. The gate follows the finding so the output shows whether it
// reached the Notified stage.
func runRoute(ctx context.Context, w io.Writer, raw []byte, cfg *config.Config, target router.Target, format string, log *zap.Logger) error {
	f, err := router.DecodeGuardDutyEvent(raw)
	if err != nil {
		return err
	}

	g := gate.New(log)
	r := router.New(router.RulesFromConfig(cfg.Routes, g.Notifying(target)), log)
	deliveries := r.Route(ctx, f)

	view := routeView{Finding: f, Deliveries: []deliveryView{}}
	for _, d := range deliveries {
		dv := deliveryView{Rule: d.Rule, Target: d.Target}
		if d.Err != nil {
			dv.Error = d.Err.Error()
		}
		view.Deliveries = append(view.Deliveries, dv)
	}
	if rec, ok := g.Get(f.ID); ok {
		view.Stage = rec.Stage
	}

	if format == "json" {
		return output.RenderJSON(w, view)
	}
	output.RenderFindings(w, []models.Finding{f}, output.TableOptions{})
	fmt.Fprintln(w)
	output.RenderDeliveries(w, deliveries)
	if view.Stage != "" {
		fmt.Fprintf(w, "\nstage: %s\n", view.Stage)
	}
	return nil
}
