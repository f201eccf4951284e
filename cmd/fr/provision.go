package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/output"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/provision"
)

func newSetupCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the notification topic, finding routes, custom actions and their rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProvisioner(cmd.Context(), opts, func(ctx context.Context, p *provision.Provisioner) error {
				rep, err := p.Setup(ctx)
				return renderProvision(cmd.OutOrStdout(), format, rep, err)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", `Output format: "table" or "json"`)
	return cmd
}

func newTeardownCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "teardown",
		Short: "Remove every resource created by setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProvisioner(cmd.Context(), opts, func(ctx context.Context, p *provision.Provisioner) error {
				rep, err := p.Teardown(ctx)
				return renderProvision(cmd.OutOrStdout(), format, rep, err)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", `Output format: "table" or "json"`)
	return cmd
}

func withProvisioner(ctx context.Context, opts *rootOptions, run func(context.Context, *provision.Provisioner) error) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	log := opts.logger()
	defer log.Sync() //nolint:errcheck

	prof, err := loadProfile(ctx, common.NewDefaultAWSClientProvider(), opts, cfg)
	if err != nil {
		return err
	}
	return run(ctx, provision.New(prof, cfg, log))
}

// renderProvision prints rep and turns soft failures into a non-zero exit
// after the full report has been shown.
func renderProvision(w io.Writer, format string, rep *provision.Report, runErr error) error {
	if format == "json" {
		if err := output.RenderJSON(w, rep); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	} else {
		output.RenderReport(w, rep)
	}
	if runErr != nil {
		return fmt.Errorf("%s: %d step(s) failed: %w", rep.Operation, rep.Failed(), runErr)
	}
	return nil
}
