package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/config"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/common"
	awsguardduty "github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/guardduty"
)

const (
	sectionConfig    = "config"
	sectionAWS       = "aws"
	sectionGuardDuty = "guardduty"
)

// DoctorCheck is one line of the diagnostics report.
type DoctorCheck struct {
	Section string `json:"section"`
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Detail  string `json:"detail,omitempty"`
}

// DoctorResult is what fr doctor prints, as a table or with --format=json.
type DoctorResult struct {
	ConfigPath string        `json:"config_path"`
	Profile    string        `json:"profile,omitempty"`
	AccountID  string        `json:"account_id,omitempty"`
	Region     string        `json:"region,omitempty"`
	Checks     []DoctorCheck `json:"checks"`
	Healthy    bool          `json:"healthy"`
}

func (r *DoctorResult) check(section, name string, ok bool, detail string) {
	r.Checks = append(r.Checks, DoctorCheck{Section: section, Name: name, OK: ok, Detail: detail})
}

// Failed returns the checks that did not pass.
func (r DoctorResult) Failed() []DoctorCheck {
	var out []DoctorCheck
	for _, c := range r.Checks {
		if !c.OK {
			out = append(out, c)
		}
	}
	return out
}

// detectorStatusFunc is swapped in tests so doctor never reaches GuardDuty.
type detectorStatusFunc func(ctx context.Context, prof *common.ProfileConfig) (awsguardduty.DetectorStatus, error)

func defaultDetectorStatus(ctx context.Context, prof *common.ProfileConfig) (awsguardduty.DetectorStatus, error) {
	return awsguardduty.NewDetector(prof.Config, nil).Status(ctx)
}

func newDoctorCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check credentials, GuardDuty and the configuration before setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			result, err := runDoctor(cmd.Context(), common.NewDefaultAWSClientProvider(), defaultDetectorStatus, cmd.OutOrStdout(), format, opts)
			if err != nil {
				return err
			}
			if !result.Healthy {
				// The report already says what failed.
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "table", `Output format: "table" or "json"`)
	return cmd
}

// runDoctor diagnoses the environment and prints the report. The error only
// reports output failures; health is carried by the result.
func runDoctor(ctx context.Context, provider common.AWSClientProvider, detector detectorStatusFunc, w io.Writer, format string, opts *rootOptions) (DoctorResult, error) {
	result := diagnose(ctx, provider, detector, opts)
	if format == "json" {
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
		return result, nil
	}
	renderDoctorTable(w, result)
	return result, nil
}

func diagnose(ctx context.Context, provider common.AWSClientProvider, detector detectorStatusFunc, opts *rootOptions) DoctorResult {
	result := DoctorResult{ConfigPath: opts.configPath, Profile: opts.profile}
	cfg := checkConfig(&result, opts.configPath)

	prof, err := loadProfile(ctx, provider, opts, cfg)
	if err != nil {
		result.check(sectionAWS, "credentials", false, err.Error())
		result.check(sectionGuardDuty, "detector", false, "skipped")
		result.Healthy = false
		return result
	}
	result.AccountID = prof.AccountID
	result.Region = prof.Region
	result.check(sectionAWS, "credentials", true, "account "+prof.AccountID)

	if regions, err := provider.GetActiveRegions(ctx, prof); err != nil {
		result.check(sectionAWS, "regions api", false, err.Error())
	} else {
		result.check(sectionAWS, "regions api", true, fmt.Sprintf("%d enabled", len(regions)))
	}

	// Without a detector in the stack region no finding ever reaches the router.
	st, err := detector(ctx, prof)
	switch {
	case err != nil:
		result.check(sectionGuardDuty, "detector", false, err.Error())
	case st.DetectorID == "":
		result.check(sectionGuardDuty, "detector", false, "no detector in "+prof.Region)
	case !st.Enabled:
		result.check(sectionGuardDuty, "detector", false, st.DetectorID+" is disabled")
	default:
		result.check(sectionGuardDuty, "detector", true, st.DetectorID)
	}

	result.Healthy = len(result.Failed()) == 0
	return result
}

// checkConfig records the state of the config file and returns the
// configuration the remaining checks should use.
func checkConfig(result *DoctorResult, path string) *config.Config {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		result.check(sectionConfig, "file", true, "not found, using defaults")
		return config.Default()
	} else if err != nil {
		result.check(sectionConfig, "file", false, err.Error())
		return config.Default()
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		result.check(sectionConfig, "file", false, err.Error())
		return config.Default()
	}
	result.check(sectionConfig, "file", true, path)

	errs := config.Validate(cfg)
	for _, e := range errs {
		result.check(sectionConfig, "valid", false, e.Error())
	}
	if len(errs) == 0 {
		result.check(sectionConfig, "valid", true, fmt.Sprintf("%d route(s), %d action(s)", len(cfg.Routes), len(cfg.Actions)))
	}
	return cfg
}

func renderDoctorTable(w io.Writer, result DoctorResult) {
	fmt.Fprintln(w, "Remediation stack diagnostics")
	section := ""
	for _, c := range result.Checks {
		if c.Section != section {
			section = c.Section
			fmt.Fprintf(w, "\n%s:\n", section)
		}
		status := "OK"
		if !c.OK {
			status = "FAIL"
		}
		if c.Detail == "" {
			fmt.Fprintf(w, "  %-12s %s\n", c.Name, status)
			continue
		}
		fmt.Fprintf(w, "  %-12s %s (%s)\n", c.Name, status, c.Detail)
	}
	if result.Healthy {
		fmt.Fprintln(w, "\nready")
	} else {
		fmt.Fprintf(w, "\n%d check(s) failed\n", len(result.Failed()))
	}
}
