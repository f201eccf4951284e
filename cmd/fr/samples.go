package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/config"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/common"
	awsguardduty "github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/guardduty"
)

type sampleCreator interface {
	CreateSamples(ctx context.Context, findingTypes []string) error
}

func newSamplesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "samples",
		Short: "Ask GuardDuty to emit sample findings for every routed type",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			log := opts.logger()
			defer log.Sync() //nolint:errcheck

			prof, err := loadProfile(cmd.Context(), common.NewDefaultAWSClientProvider(), opts, cfg)
			if err != nil {
				return err
			}
			return runSamples(cmd.Context(), cmd.OutOrStdout(), awsguardduty.NewDetector(prof.Config, log), cfg)
		},
	}
}

// runSamples requests one sample per GuardDuty finding type routed by cfg.
func runSamples(ctx context.Context, w io.Writer, gd sampleCreator, cfg *config.Config) error {
	var types []string
	seen := map[string]bool{}
	for _, r := range cfg.Routes {
		if r.Source != models.SourceGuardDuty || seen[r.Type] {
			continue
		}
		seen[r.Type] = true
		types = append(types, r.Type)
	}
	if len(types) == 0 {
		fmt.Fprintln(w, "No GuardDuty routes configured.")
		return nil
	}

	if err := gd.CreateSamples(ctx, types); err != nil {
		return err
	}
	for _, t := range types {
		fmt.Fprintf(w, "requested sample: %s\n", t)
	}
	return nil
}
