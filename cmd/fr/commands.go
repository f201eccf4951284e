package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/config"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/logging"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/version"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	profile    string
	region     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "fr",
		Short:         "Findings remediator: route security findings and run operator-approved remediations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "Path to the remediator configuration")
	root.PersistentFlags().StringVar(&opts.profile, "profile", "", "AWS profile name (default: config profile, then credential chain)")
	root.PersistentFlags().StringVar(&opts.region, "region", "", "AWS region (default: config region, then profile region)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	root.AddCommand(
		newSetupCmd(opts),
		newTeardownCmd(opts),
		newRouteCmd(opts),
		newRemediateCmd(opts),
		newSamplesCmd(opts),
		newDoctorCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}

func (o *rootOptions) logger() *zap.Logger {
	return logging.New(logging.FormatConsole, o.logLevel)
}

// loadConfig reads and validates the configuration at path. A missing file
// at the default location falls back to the stock configuration; a missing
// file named explicitly is an error.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) && path == config.DefaultPath {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		var merr *multierror.Error
		for _, e := range errs {
			merr = multierror.Append(merr, e)
		}
		return nil, fmt.Errorf("invalid config %s: %w", path, merr)
	}
	return cfg, nil
}

// loadProfile resolves credentials and account for the command. Flags win
// over the config file; a configured account id overrides STS.
func loadProfile(ctx context.Context, provider common.AWSClientProvider, opts *rootOptions, cfg *config.Config) (*common.ProfileConfig, error) {
	profile := opts.profile
	if profile == "" {
		profile = cfg.Profile
	}
	region := opts.region
	if region == "" {
		region = cfg.Region
	}

	prof, err := provider.LoadProfile(ctx, profile, region)
	if err != nil {
		return nil, err
	}
	if cfg.AccountID != "" {
		prof.AccountID = cfg.AccountID
	}
	return prof, nil
}

// readInput reads path, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
